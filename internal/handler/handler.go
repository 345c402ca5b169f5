package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"absensi/internal/admin"
	"absensi/internal/attendance"
	"absensi/internal/auth"
	"absensi/internal/barcode"
	"absensi/internal/face"
	"absensi/internal/session"
)

// Handler owns the HTTP surface and delegates to the domain services.
type Handler struct {
	admins     *admin.Repository
	attendance *attendance.Service
	sessions   *session.Service
	barcodes   *barcode.Service
	faces      *face.Service
	scanLogs   *face.Repository

	jwtKey    string
	jwtIssuer string
	tokenTTL  time.Duration
}

// New wires the handler.
func New(admins *admin.Repository, att *attendance.Service, sessions *session.Service, barcodes *barcode.Service, faces *face.Service, scanLogs *face.Repository, jwtKey, jwtIssuer string, tokenTTL time.Duration) *Handler {
	return &Handler{
		admins:     admins,
		attendance: att,
		sessions:   sessions,
		barcodes:   barcodes,
		faces:      faces,
		scanLogs:   scanLogs,
		jwtKey:     jwtKey,
		jwtIssuer:  jwtIssuer,
		tokenTTL:   tokenTTL,
	}
}

// Routes registers every endpoint on the router.
func (h *Handler) Routes(r *gin.Engine) {
	r.POST("/auth/login", h.Login)

	// Face registration happens before account activation, so these two
	// stay public like the rest of the face enrollment flow.
	r.POST("/face/register", h.FaceRegister)
	r.POST("/face/verify", h.FaceVerify)

	authed := r.Group("/", auth.RequireAuth(h.jwtKey, h.jwtIssuer))

	student := authed.Group("/absensi", auth.RequireLevel(auth.LevelMahasiswa))
	student.GET("/sesi/aktif", h.ActiveSessions)
	student.POST("/verify-barcode", h.VerifyBarcode)
	student.POST("/submit", h.Submit)

	authed.GET("/absensi/history/:nim", h.History)

	dosen := authed.Group("/dosen")
	dosen.POST("/sesi/open", auth.RequireLevel(auth.LevelDosen), h.OpenSession)
	dosen.POST("/barcode/generate", auth.RequireLevel(auth.LevelDosen), h.GenerateBarcode)
	dosen.GET("/rekap/:id_kelas", auth.RequireLevel(auth.LevelDosen, auth.LevelAdmin), h.Rekap)
	dosen.GET("/sesi/:id_sesi/kehadiran", auth.RequireLevel(auth.LevelDosen, auth.LevelAdmin), h.Roster)

	adminGroup := authed.Group("/admin", auth.RequireLevel(auth.LevelAdmin))
	h.adminRoutes(adminGroup)
}

func respondErr(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "message": message})
}

func respondDBErr(c *gin.Context, err error) {
	// Storage failures are the only 500s this surface produces.
	log.Printf("storage error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	respondErr(c, http.StatusInternalServerError, "database error")
}
