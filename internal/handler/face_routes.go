package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type faceRegisterRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	UserType    string `json:"user_type" binding:"required"`
	ImageBase64 string `json:"image_base64" binding:"required"`
}

// FaceRegister stores (or overwrites) a face descriptor for a user.
func (h *Handler) FaceRegister(c *gin.Context) {
	var req faceRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "user_id, user_type and image_base64 required")
		return
	}

	ok, msg, err := h.faces.Register(c.Request.Context(), req.UserID, req.UserType, req.ImageBase64)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if !ok {
		respondErr(c, http.StatusBadRequest, msg)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": msg})
}

type faceVerifyRequest struct {
	NIM         string `json:"nim" binding:"required"`
	ImageBase64 string `json:"image_base64" binding:"required"`
}

// FaceVerify compares an image against a student's stored descriptor.
// Informational only; no scan log entry and no attendance side effects.
func (h *Handler) FaceVerify(c *gin.Context) {
	var req faceVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "nim and image_base64 required")
		return
	}

	res, err := h.faces.Verify(c.Request.Context(), req.NIM, req.ImageBase64)
	if err != nil {
		respondDBErr(c, err)
		return
	}

	status := "success"
	if !res.Match {
		status = "error"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"match":            res.Match,
		"confidence_score": res.Confidence,
		"message":          res.Message,
	})
}
