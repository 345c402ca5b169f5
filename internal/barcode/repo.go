package barcode

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Barcode statuses.
const (
	StatusAktif      = "aktif"
	StatusKadaluarsa = "kadaluarsa"
)

// Barcode is a short-lived possession proof bound to one session.
type Barcode struct {
	ID              int64     `json:"id_barcode"`
	Kode            string    `json:"kode_barcode"`
	IDSesi          int64     `json:"id_sesi"`
	NIPDosen        string    `json:"nip_dosen"`
	WaktuKadaluarsa time.Time `json:"waktu_kadaluarsa"`
	Status          string    `json:"status"`
}

// ClassScoped is a barcode joined with the meeting it serves, looked up
// in the scope of one student's class.
type ClassScoped struct {
	Kode            string
	IDSesi          int64
	IDPertemuan     int64
	WaktuKadaluarsa time.Time
}

// Repository persists barcodes in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a freshly issued barcode.
func (r *Repository) Insert(ctx context.Context, b Barcode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO barcode (kode_barcode, id_sesi, nip_dosen, waktu_kadaluarsa, status)
		VALUES ($1, $2, $3, $4, 'aktif')
	`, b.Kode, b.IDSesi, b.NIPDosen, b.WaktuKadaluarsa)
	return err
}

// GetForStudent resolves an active code in the scope of the student's
// class, or nil when the code does not exist, is not active, or serves a
// different class.
func (r *Repository) GetForStudent(ctx context.Context, kode, nim string) (*ClassScoped, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT b.kode_barcode, b.id_sesi, p.id_pertemuan, b.waktu_kadaluarsa
		FROM barcode b
		JOIN sesi_absensi s ON b.id_sesi = s.id_sesi
		JOIN pertemuan p ON s.id_pertemuan = p.id_pertemuan
		JOIN mahasiswa m ON p.id_kelas = m.id_kelas
		WHERE b.kode_barcode = $1 AND m.nim = $2 AND b.status = 'aktif'
	`, kode, nim)
	var c ClassScoped
	if err := row.Scan(&c.Kode, &c.IDSesi, &c.IDPertemuan, &c.WaktuKadaluarsa); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetForSession resolves an active code bound to the given session, or
// nil when no such code exists.
func (r *Repository) GetForSession(ctx context.Context, kode string, idSesi int64) (*Barcode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id_barcode, kode_barcode, id_sesi, nip_dosen, waktu_kadaluarsa, status
		FROM barcode
		WHERE kode_barcode = $1 AND id_sesi = $2 AND status = 'aktif'
	`, kode, idSesi)
	var b Barcode
	if err := row.Scan(&b.ID, &b.Kode, &b.IDSesi, &b.NIPDosen, &b.WaktuKadaluarsa, &b.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// Expire lazily marks a code expired once a read finds it past its time.
func (r *Repository) Expire(ctx context.Context, kode string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE barcode SET status = 'kadaluarsa' WHERE kode_barcode = $1`, kode)
	return err
}
