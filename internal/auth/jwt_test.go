package auth

import (
	"testing"
	"time"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	token, exp, err := Issue("2110511001", LevelMahasiswa, "absensi-backend", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("expiry too soon: %v", exp)
	}

	claims, err := Parse(token, "secret", "absensi-backend")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "2110511001" || claims.Level != LevelMahasiswa {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue("198001011", LevelDosen, "absensi-backend", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "other-secret", "absensi-backend"); err == nil {
		t.Fatal("expected error for wrong signing key")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue("198001011", LevelDosen, "absensi-backend", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "secret", "absensi-backend"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	token, _, err := Issue("admin1", LevelAdmin, "someone-else", "secret", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "secret", "absensi-backend"); err == nil {
		t.Fatal("expected error for issuer mismatch")
	}
}
