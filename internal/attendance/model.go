package attendance

import (
	"fmt"
	"time"
)

// Method is the closed set of ways a student can check in.
type Method string

const (
	MethodFace   Method = "face_recognition"
	MethodQR     Method = "qr_code"
	MethodManual Method = "manual"
)

// ParseMethod maps wire input to a Method; unknown values are an error
// rather than a silent fallthrough.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodFace, MethodQR, MethodManual:
		return Method(s), nil
	default:
		return "", fmt.Errorf("unknown attendance method %q", s)
	}
}

// StatusHadir is the only status the pipeline ever writes.
const StatusHadir = "hadir"

// Record is one immutable attendance row; at most one exists per
// (student, meeting).
type Record struct {
	ID          int64     `json:"id_absensi"`
	NIM         string    `json:"nim"`
	IDPertemuan int64     `json:"id_pertemuan"`
	IDSesi      int64     `json:"id_sesi"`
	Status      string    `json:"status"`
	Metode      Method    `json:"metode"`
	Confidence  float64   `json:"confidence_score"`
	LokasiLat   float64   `json:"lokasi_lat"`
	LokasiLong  float64   `json:"lokasi_long"`
	WaktuAbsen  time.Time `json:"waktu_absen"`
}

// HistoryEntry is one attendance row joined with its meeting and course.
type HistoryEntry struct {
	IDAbsensi      int64     `json:"id_absensi"`
	WaktuAbsen     time.Time `json:"waktu_absen"`
	Status         string    `json:"status"`
	Metode         Method    `json:"metode"`
	Confidence     float64   `json:"confidence_score"`
	PertemuanKe    int       `json:"pertemuan_ke"`
	Tanggal        time.Time `json:"tanggal"`
	Topik          string    `json:"topik"`
	NamaKelas      string    `json:"nama_kelas"`
	NamaMatakuliah string    `json:"nama_matakuliah"`
	KodeMK         string    `json:"kode_mk"`
}

// RecordedEvent is published after a successful submission so the worker
// can invalidate derived views.
type RecordedEvent struct {
	NIM         string `json:"nim"`
	IDPertemuan int64  `json:"id_pertemuan"`
}
