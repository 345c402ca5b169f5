package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi/internal/attendance"
	"absensi/internal/auth"
)

// ActiveSessions returns active sessions for the caller's class.
func (h *Handler) ActiveSessions(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	sessions, err := h.sessions.ActiveForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if len(sessions) == 0 {
		respondErr(c, http.StatusNotFound, "no active session for your class right now")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "sesi_aktif": sessions})
}

type verifyBarcodeRequest struct {
	KodeBarcode string `json:"kode_barcode" binding:"required"`
}

// VerifyBarcode resolves a code to its session for the calling student.
func (h *Handler) VerifyBarcode(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var req verifyBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "kode_barcode required")
		return
	}

	red, msg, err := h.barcodes.Redeem(c.Request.Context(), claims.UserID, req.KodeBarcode)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if red == nil {
		respondErr(c, http.StatusBadRequest, msg)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"id_sesi":      red.IDSesi,
		"id_pertemuan": red.IDPertemuan,
		"message":      msg,
	})
}

type submitRequest struct {
	IDSesi      int64    `json:"id_sesi" binding:"required"`
	Metode      string   `json:"metode" binding:"required"`
	LokasiLat   *float64 `json:"lokasi_lat" binding:"required,gte=-90,lte=90"`
	LokasiLong  *float64 `json:"lokasi_long" binding:"required,gte=-180,lte=180"`
	ImageBase64 string   `json:"image_base64"`
	KodeBarcode string   `json:"kode_barcode"`
}

// Submit runs the attendance pipeline for the calling student.
func (h *Handler) Submit(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "id_sesi, metode, lokasi_lat and lokasi_long required")
		return
	}
	metode, err := attendance.ParseMethod(req.Metode)
	if err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}

	evidence := req.ImageBase64
	if metode == attendance.MethodQR {
		evidence = req.KodeBarcode
	}

	ok, msg, err := h.attendance.Submit(c.Request.Context(), claims.UserID, req.IDSesi, metode, *req.LokasiLat, *req.LokasiLong, evidence)
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

// History lists a student's attendance, newest meeting first.
func (h *Handler) History(c *gin.Context) {
	nim := c.Param("nim")

	history, err := h.attendance.History(c.Request.Context(), nim)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if history == nil {
		history = []attendance.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "history": history})
}
