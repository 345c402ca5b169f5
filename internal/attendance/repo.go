package attendance

import (
	"context"
	"database/sql"
	"errors"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// HasForMeeting reports whether the student already has a record for the
// meeting, across any session of that meeting.
func (r *Repository) HasForMeeting(ctx context.Context, nim string, idPertemuan int64) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id_absensi FROM absensi WHERE nim = $1 AND id_pertemuan = $2`, nim, idPertemuan)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// InsertUnique writes the record unless one already exists for the
// (student, meeting) pair. The uniqueness check rides on the table's
// UNIQUE (nim, id_pertemuan) constraint, so of two concurrent identical
// submissions exactly one inserts; the loser sees inserted = false.
func (r *Repository) InsertUnique(ctx context.Context, rec Record) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO absensi (nim, id_pertemuan, id_sesi, status, metode, confidence_score, lokasi_lat, lokasi_long)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (nim, id_pertemuan) DO NOTHING
		RETURNING id_absensi
	`, rec.NIM, rec.IDPertemuan, rec.IDSesi, rec.Status, rec.Metode, rec.Confidence, rec.LokasiLat, rec.LokasiLong)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// History returns the student's attendance joined with meeting and
// course details, newest meeting first.
func (r *Repository) History(ctx context.Context, nim string) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id_absensi, a.waktu_absen, a.status, a.metode, a.confidence_score,
			p.pertemuan_ke, p.tanggal, COALESCE(p.topik, ''),
			k.nama_kelas,
			mk.nama_matakuliah, mk.kode_mk
		FROM absensi a
		JOIN pertemuan p ON a.id_pertemuan = p.id_pertemuan
		JOIN kelas k ON p.id_kelas = k.id_kelas
		JOIN matakuliah mk ON k.id_matakuliah = mk.id_matakuliah
		WHERE a.nim = $1
		ORDER BY p.tanggal DESC, p.pertemuan_ke DESC
	`, nim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.IDAbsensi, &e.WaktuAbsen, &e.Status, &e.Metode, &e.Confidence,
			&e.PertemuanKe, &e.Tanggal, &e.Topik, &e.NamaKelas, &e.NamaMatakuliah, &e.KodeMK); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// KelasForMeeting resolves the class a meeting belongs to; used by the
// worker to target cache invalidation.
func (r *Repository) KelasForMeeting(ctx context.Context, idPertemuan int64) (int64, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id_kelas FROM pertemuan WHERE id_pertemuan = $1`, idPertemuan)
	var idKelas int64
	if err := row.Scan(&idKelas); err != nil {
		return 0, err
	}
	return idKelas, nil
}
