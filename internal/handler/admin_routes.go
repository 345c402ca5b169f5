package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"absensi/internal/admin"
)

func (h *Handler) adminRoutes(g *gin.RouterGroup) {
	g.GET("/users", h.listUsers)
	g.POST("/users", h.createUser)
	g.PUT("/users/:id", h.updateUserPassword)
	g.DELETE("/users/:id", h.deleteUser)

	g.GET("/dosen", h.listDosen)
	g.POST("/dosen", h.createDosen)
	g.PUT("/dosen/:nip", h.updateDosen)
	g.DELETE("/dosen/:nip", h.deleteDosen)

	g.GET("/mahasiswa", h.listMahasiswa)
	g.POST("/mahasiswa", h.createMahasiswa)
	g.PUT("/mahasiswa/:nim", h.updateMahasiswa)
	g.DELETE("/mahasiswa/:nim", h.deleteMahasiswa)

	g.GET("/kelas", h.listKelas)
	g.POST("/kelas", h.createKelas)
	g.PUT("/kelas/:id", h.updateKelas)
	g.DELETE("/kelas/:id", h.deleteKelas)

	g.GET("/matakuliah", h.listMatakuliah)
	g.POST("/matakuliah", h.createMatakuliah)
	g.PUT("/matakuliah/:id", h.updateMatakuliah)
	g.DELETE("/matakuliah/:id", h.deleteMatakuliah)

	g.GET("/pertemuan", h.listPertemuan)
	g.POST("/pertemuan", h.createPertemuan)
	g.PUT("/pertemuan/:id", h.updatePertemuan)
	g.DELETE("/pertemuan/:id", h.deletePertemuan)

	g.GET("/logs/face-scan", h.listFaceScanLogs)
}

func respondCrudErr(c *gin.Context, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(c, http.StatusNotFound, "resource not found")
		return
	}
	respondDBErr(c, err)
}

func pathInt(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

// ---------- Users ----------

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.admins.ListUsers(c.Request.Context())
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "users": users})
}

type createUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Nama     string  `json:"nama" binding:"required"`
	Level    string  `json:"level" binding:"required,oneof=admin dosen mahasiswa"`
	NIP      *string `json:"nip"`
	NIM      *string `json:"nim"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.admins.CreateUser(c.Request.Context(), admin.User{
		Username: req.Username, Nama: req.Nama, Level: req.Level, NIP: req.NIP, NIM: req.NIM,
	}, req.Password)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "id_user": id})
}

func (h *Handler) updateUserPassword(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, "password required")
		return
	}
	if err := h.admins.UpdateUserPassword(c.Request.Context(), id, req.Password); err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "password updated"})
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	if err := h.admins.DeleteUser(c.Request.Context(), id); err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "user deleted"})
}

// ---------- Dosen ----------

func (h *Handler) listDosen(c *gin.Context) {
	dosen, err := h.admins.ListDosen(c.Request.Context())
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "dosen": dosen})
}

type createDosenRequest struct {
	NIP      string  `json:"nip" binding:"required"`
	Nama     string  `json:"nama" binding:"required"`
	Email    *string `json:"email"`
	NoHP     *string `json:"no_hp"`
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
}

func (h *Handler) createDosen(c *gin.Context) {
	var req createDosenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	err := h.admins.CreateDosen(c.Request.Context(), admin.Dosen{
		NIP: req.NIP, Nama: req.Nama, Email: req.Email, NoHP: req.NoHP,
	}, req.Username, req.Password)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "dosen and account created"})
}

func (h *Handler) updateDosen(c *gin.Context) {
	var req struct {
		Nama  string  `json:"nama" binding:"required"`
		Email *string `json:"email"`
		NoHP  *string `json:"no_hp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	err := h.admins.UpdateDosen(c.Request.Context(), admin.Dosen{
		NIP: c.Param("nip"), Nama: req.Nama, Email: req.Email, NoHP: req.NoHP,
	})
	if err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "dosen updated"})
}

func (h *Handler) deleteDosen(c *gin.Context) {
	if err := h.admins.DeleteDosen(c.Request.Context(), c.Param("nip")); err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "dosen deleted"})
}

// ---------- Mahasiswa ----------

func (h *Handler) listMahasiswa(c *gin.Context) {
	mahasiswa, err := h.admins.ListMahasiswa(c.Request.Context())
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "mahasiswa": mahasiswa})
}

type createMahasiswaRequest struct {
	NIM      string  `json:"nim" binding:"required"`
	Nama     string  `json:"nama" binding:"required"`
	Email    *string `json:"email"`
	Angkatan int     `json:"angkatan" binding:"required"`
	IDKelas  *int64  `json:"id_kelas"`
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
}

func (h *Handler) createMahasiswa(c *gin.Context) {
	var req createMahasiswaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	err := h.admins.CreateMahasiswa(c.Request.Context(), admin.Mahasiswa{
		NIM: req.NIM, Nama: req.Nama, Email: req.Email, Angkatan: req.Angkatan, IDKelas: req.IDKelas,
	}, req.Username, req.Password)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "mahasiswa and account created"})
}

func (h *Handler) updateMahasiswa(c *gin.Context) {
	var req struct {
		Nama     string  `json:"nama" binding:"required"`
		Email    *string `json:"email"`
		Angkatan int     `json:"angkatan" binding:"required"`
		IDKelas  *int64  `json:"id_kelas"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	err := h.admins.UpdateMahasiswa(c.Request.Context(), admin.Mahasiswa{
		NIM: c.Param("nim"), Nama: req.Nama, Email: req.Email, Angkatan: req.Angkatan, IDKelas: req.IDKelas,
	})
	if err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "mahasiswa updated"})
}

func (h *Handler) deleteMahasiswa(c *gin.Context) {
	if err := h.admins.DeleteMahasiswa(c.Request.Context(), c.Param("nim")); err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "mahasiswa deleted"})
}

// ---------- Kelas ----------

func (h *Handler) listKelas(c *gin.Context) {
	kelas, err := h.admins.ListKelas(c.Request.Context())
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "kelas": kelas})
}

type kelasRequest struct {
	NamaKelas    string  `json:"nama_kelas" binding:"required"`
	Ruangan      *string `json:"ruangan"`
	Hari         *string `json:"hari"`
	JamMulai     *string `json:"jam_mulai"`
	JamSelesai   *string `json:"jam_selesai"`
	IDMatakuliah int64   `json:"id_matakuliah" binding:"required"`
}

func (h *Handler) createKelas(c *gin.Context) {
	var req kelasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.admins.CreateKelas(c.Request.Context(), admin.Kelas{
		NamaKelas: req.NamaKelas, Ruangan: req.Ruangan, Hari: req.Hari,
		JamMulai: req.JamMulai, JamSelesai: req.JamSelesai, IDMatakuliah: req.IDMatakuliah,
	})
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "id_kelas": id})
}

func (h *Handler) updateKelas(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req kelasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	err := h.admins.UpdateKelas(c.Request.Context(), admin.Kelas{
		IDKelas: id, NamaKelas: req.NamaKelas, Ruangan: req.Ruangan, Hari: req.Hari,
		JamMulai: req.JamMulai, JamSelesai: req.JamSelesai, IDMatakuliah: req.IDMatakuliah,
	})
	if err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "kelas updated"})
}

func (h *Handler) deleteKelas(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	if err := h.admins.DeleteKelas(c.Request.Context(), id); err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "kelas deleted"})
}

// ---------- Matakuliah ----------

func (h *Handler) listMatakuliah(c *gin.Context) {
	matakuliah, err := h.admins.ListMatakuliah(c.Request.Context())
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "matakuliah": matakuliah})
}

type matakuliahRequest struct {
	KodeMK         string  `json:"kode_mk" binding:"required"`
	NamaMatakuliah string  `json:"nama_matakuliah" binding:"required"`
	SKS            int     `json:"sks" binding:"required"`
	NIPDosen       *string `json:"nip_dosen"`
}

func (h *Handler) createMatakuliah(c *gin.Context) {
	var req matakuliahRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.admins.CreateMatakuliah(c.Request.Context(), admin.Matakuliah{
		KodeMK: req.KodeMK, NamaMatakuliah: req.NamaMatakuliah, SKS: req.SKS, NIPDosen: req.NIPDosen,
	})
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "id_matakuliah": id})
}

func (h *Handler) updateMatakuliah(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req matakuliahRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	err := h.admins.UpdateMatakuliah(c.Request.Context(), admin.Matakuliah{
		IDMatakuliah: id, KodeMK: req.KodeMK, NamaMatakuliah: req.NamaMatakuliah, SKS: req.SKS, NIPDosen: req.NIPDosen,
	})
	if err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "matakuliah updated"})
}

func (h *Handler) deleteMatakuliah(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	if err := h.admins.DeleteMatakuliah(c.Request.Context(), id); err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "matakuliah deleted"})
}

// ---------- Pertemuan ----------

func (h *Handler) listPertemuan(c *gin.Context) {
	var idKelas int64
	if v := c.Query("id_kelas"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondErr(c, http.StatusBadRequest, "invalid id_kelas")
			return
		}
		idKelas = parsed
	}
	pertemuan, err := h.admins.ListPertemuan(c.Request.Context(), idKelas)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "pertemuan": pertemuan})
}

type pertemuanRequest struct {
	IDKelas     int64     `json:"id_kelas" binding:"required"`
	PertemuanKe int       `json:"pertemuan_ke" binding:"required"`
	Tanggal     time.Time `json:"tanggal" binding:"required"`
	Topik       *string   `json:"topik"`
}

func (h *Handler) createPertemuan(c *gin.Context) {
	var req pertemuanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.admins.CreatePertemuan(c.Request.Context(), admin.Pertemuan{
		IDKelas: req.IDKelas, PertemuanKe: req.PertemuanKe, Tanggal: req.Tanggal, Topik: req.Topik,
	})
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "id_pertemuan": id})
}

func (h *Handler) updatePertemuan(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req pertemuanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, http.StatusBadRequest, err.Error())
		return
	}
	err := h.admins.UpdatePertemuan(c.Request.Context(), admin.Pertemuan{
		IDPertemuan: id, IDKelas: req.IDKelas, PertemuanKe: req.PertemuanKe, Tanggal: req.Tanggal, Topik: req.Topik,
	})
	if err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "pertemuan updated"})
}

func (h *Handler) deletePertemuan(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}
	if err := h.admins.DeletePertemuan(c.Request.Context(), id); err != nil {
		respondCrudErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "pertemuan deleted"})
}

// ---------- Logs ----------

func (h *Handler) listFaceScanLogs(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	logs, err := h.scanLogs.ListScanLogs(c.Request.Context(), limit)
	if err != nil {
		respondDBErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "logs": logs})
}
