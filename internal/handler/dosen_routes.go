package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"absensi/internal/auth"
	"absensi/internal/session"
)

type openSessionRequest struct {
	IDPertemuan int64    `json:"id_pertemuan" binding:"required"`
	DurasiMenit int      `json:"durasi_menit" binding:"required"`
	LokasiLat   *float64 `json:"lokasi_lat" binding:"required,gte=-90,lte=90"`
	LokasiLong  *float64 `json:"lokasi_long" binding:"required,gte=-180,lte=180"`
	RadiusMeter int      `json:"radius_meter" binding:"required"`
}

// OpenSession starts an attendance window for one of the caller's meetings.
func (h *Handler) OpenSession(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "id_pertemuan, durasi_menit, lokasi_lat, lokasi_long and radius_meter required")
		return
	}

	id, msg, err := h.sessions.Open(c.Request.Context(), req.IDPertemuan, claims.UserID, req.DurasiMenit, *req.LokasiLat, *req.LokasiLong, req.RadiusMeter)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if id == 0 {
		respondErr(c, http.StatusBadRequest, msg)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "id_sesi": id, "message": msg})
}

type generateBarcodeRequest struct {
	IDSesi      int64 `json:"id_sesi" binding:"required"`
	DurasiMenit int   `json:"durasi_menit"`
}

// GenerateBarcode issues a fresh code for a session the caller owns.
func (h *Handler) GenerateBarcode(c *gin.Context) {
	claims, _ := auth.FromContext(c)

	var req generateBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "id_sesi required")
		return
	}

	kode, msg, err := h.barcodes.Issue(c.Request.Context(), req.IDSesi, claims.UserID, req.DurasiMenit)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if kode == "" {
		respondErr(c, http.StatusBadRequest, msg)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "kode_barcode": kode, "message": msg})
}

// Rekap returns the per-class attendance aggregation.
func (h *Handler) Rekap(c *gin.Context) {
	idKelas, err := strconv.ParseInt(c.Param("id_kelas"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "invalid class id")
		return
	}

	rekap, err := h.sessions.Rekap(c.Request.Context(), idKelas)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if rekap == nil {
		rekap = []session.RekapEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "rekap": rekap})
}

// Roster returns the live per-student view of one session.
func (h *Handler) Roster(c *gin.Context) {
	idSesi, err := strconv.ParseInt(c.Param("id_sesi"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "invalid session id")
		return
	}

	roster, err := h.sessions.Roster(c.Request.Context(), idSesi)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	if roster == nil {
		roster = []session.RosterEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "kehadiran": roster})
}
