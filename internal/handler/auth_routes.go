package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"absensi/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an account and issues a 24h bearer token. The
// user id in the token is the nim for students and the nip otherwise.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.admins.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if user == nil {
		respondErr(c, http.StatusNotFound, "username not found")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondErr(c, http.StatusUnauthorized, "wrong password")
		return
	}

	userID := ""
	switch auth.Level(user.Level) {
	case auth.LevelMahasiswa:
		if user.NIM != nil {
			userID = *user.NIM
		}
	default:
		if user.NIP != nil {
			userID = *user.NIP
		}
	}
	if userID == "" {
		userID = req.Username
	}

	token, _, err := auth.Issue(userID, auth.Level(user.Level), h.jwtIssuer, h.jwtKey, h.tokenTTL)
	if err != nil {
		respondErr(c, http.StatusInternalServerError, "token issue failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"token":   token,
		"level":   user.Level,
		"user_id": userID,
		"nama":    user.Nama,
	})
}
