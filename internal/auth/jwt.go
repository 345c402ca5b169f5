package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Level is the closed set of account roles carried in tokens.
type Level string

const (
	LevelMahasiswa Level = "mahasiswa"
	LevelDosen     Level = "dosen"
	LevelAdmin     Level = "admin"
)

// Claims represents the JWT payload: the acting user id (nim or nip)
// and their level, plus the registered expiry/issued-at fields.
type Claims struct {
	UserID string `json:"user_id"`
	Level  Level  `json:"level"`
	jwt.RegisteredClaims
}

// Issue signs a bearer token for the given user.
func Issue(userID string, level Level, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		UserID: userID,
		Level:  level,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}
