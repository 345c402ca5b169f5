package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Session statuses.
const (
	StatusAktif   = "aktif"
	StatusSelesai = "selesai"
)

// ErrActiveExists is returned when a meeting already has an active session.
var ErrActiveExists = errors.New("meeting already has an active session")

// Session is one attendance window for one class meeting.
type Session struct {
	ID          int64     `json:"id_sesi"`
	IDPertemuan int64     `json:"id_pertemuan"`
	NIPDosen    string    `json:"nip_dosen"`
	WaktuBuka   time.Time `json:"waktu_buka"`
	WaktuTutup  time.Time `json:"waktu_tutup"`
	DurasiMenit int       `json:"durasi_menit"`
	LokasiLat   float64   `json:"lokasi_lat"`
	LokasiLong  float64   `json:"lokasi_long"`
	RadiusMeter int       `json:"radius_meter"`
	Status      string    `json:"status_sesi"`
}

// RosterEntry is one student's live status for a session: attendance
// columns are nil until the student submits.
type RosterEntry struct {
	NIM        string     `json:"nim"`
	Nama       string     `json:"nama"`
	Status     *string    `json:"status"`
	WaktuAbsen *time.Time `json:"waktu_absen"`
	Metode     *string    `json:"metode"`
	Confidence *float64   `json:"confidence_score"`
}

// RekapEntry aggregates a student's attendance across a class.
type RekapEntry struct {
	NIM            string `json:"nim"`
	Nama           string `json:"nama"`
	TotalHadir     int    `json:"total_hadir"`
	TotalPertemuan int    `json:"total_pertemuan"`
}

// Repository persists attendance sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert opens a session unless the meeting already has an active one.
// The check and insert are a single statement, so concurrent opens for
// the same meeting cannot both succeed.
func (r *Repository) Insert(ctx context.Context, s Session) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sesi_absensi (id_pertemuan, nip_dosen, waktu_buka, waktu_tutup, durasi_menit, lokasi_lat, lokasi_long, radius_meter, status_sesi)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, 'aktif'
		WHERE NOT EXISTS (
			SELECT 1 FROM sesi_absensi WHERE id_pertemuan = $1 AND status_sesi = 'aktif'
		)
		RETURNING id_sesi
	`, s.IDPertemuan, s.NIPDosen, s.WaktuBuka, s.WaktuTutup, s.DurasiMenit, s.LokasiLat, s.LokasiLong, s.RadiusMeter)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrActiveExists
		}
		return 0, err
	}
	return id, nil
}

// GetByID returns a session regardless of status, or nil when missing.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id_sesi, id_pertemuan, nip_dosen, waktu_buka, waktu_tutup, durasi_menit, lokasi_lat, lokasi_long, radius_meter, status_sesi
		FROM sesi_absensi WHERE id_sesi = $1
	`, id)
	var s Session
	if err := row.Scan(&s.ID, &s.IDPertemuan, &s.NIPDosen, &s.WaktuBuka, &s.WaktuTutup, &s.DurasiMenit, &s.LokasiLat, &s.LokasiLong, &s.RadiusMeter, &s.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetOwned returns the session only if it was opened by the given lecturer.
func (r *Repository) GetOwned(ctx context.Context, id int64, nipDosen string) (*Session, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	if s.NIPDosen != nipDosen {
		return nil, nil
	}
	return s, nil
}

// Close marks a session closed. Closing an already-closed session is a no-op.
func (r *Repository) Close(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sesi_absensi SET status_sesi = 'selesai' WHERE id_sesi = $1`, id)
	return err
}

// ActiveForStudent lists active sessions for meetings of the student's class.
func (r *Repository) ActiveForStudent(ctx context.Context, nim string) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id_sesi, s.id_pertemuan, s.nip_dosen, s.waktu_buka, s.waktu_tutup, s.durasi_menit, s.lokasi_lat, s.lokasi_long, s.radius_meter, s.status_sesi
		FROM sesi_absensi s
		JOIN pertemuan p ON s.id_pertemuan = p.id_pertemuan
		JOIN mahasiswa m ON p.id_kelas = m.id_kelas
		WHERE m.nim = $1 AND s.status_sesi = 'aktif'
		ORDER BY s.waktu_buka DESC
	`, nim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.IDPertemuan, &s.NIPDosen, &s.WaktuBuka, &s.WaktuTutup, &s.DurasiMenit, &s.LokasiLat, &s.LokasiLong, &s.RadiusMeter, &s.Status); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// Roster lists every student of the session's class with their live
// attendance status for that session.
func (r *Repository) Roster(ctx context.Context, idSesi int64) ([]RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.nim, m.nama, a.status, a.waktu_absen, a.metode, a.confidence_score
		FROM mahasiswa m
		JOIN pertemuan p ON m.id_kelas = p.id_kelas
		JOIN sesi_absensi s ON p.id_pertemuan = s.id_pertemuan
		LEFT JOIN absensi a ON m.nim = a.nim AND a.id_sesi = s.id_sesi
		WHERE s.id_sesi = $1
		ORDER BY m.nim
	`, idSesi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RosterEntry
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.NIM, &e.Nama, &e.Status, &e.WaktuAbsen, &e.Metode, &e.Confidence); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Rekap aggregates per-student attendance counts for one class.
func (r *Repository) Rekap(ctx context.Context, idKelas int64) ([]RekapEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.nim, m.nama,
			COUNT(a.id_absensi) AS total_hadir,
			(SELECT COUNT(*) FROM pertemuan p WHERE p.id_kelas = m.id_kelas) AS total_pertemuan
		FROM mahasiswa m
		LEFT JOIN absensi a ON a.nim = m.nim
			AND a.id_pertemuan IN (SELECT id_pertemuan FROM pertemuan WHERE id_kelas = $1)
		WHERE m.id_kelas = $1
		GROUP BY m.nim, m.nama, m.id_kelas
		ORDER BY m.nim
	`, idKelas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RekapEntry
	for rows.Next() {
		var e RekapEntry
		if err := rows.Scan(&e.NIM, &e.Nama, &e.TotalHadir, &e.TotalPertemuan); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
