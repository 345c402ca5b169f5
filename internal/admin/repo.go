package admin

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Repository manages master data. Every statement names its columns
// explicitly; nothing is built from request keys.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func hashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ---------- Users ----------

// GetUserByUsername returns an account for login, nil when unknown.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id_user, username, password, nama, level, nip, nim
		FROM users WHERE username = $1
	`, username)
	var u User
	if err := row.Scan(&u.IDUser, &u.Username, &u.Password, &u.Nama, &u.Level, &u.NIP, &u.NIM); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all accounts.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id_user, username, password, nama, level, nip, nim
		FROM users ORDER BY id_user
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.IDUser, &u.Username, &u.Password, &u.Nama, &u.Level, &u.NIP, &u.NIM); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// CreateUser stores an account with a bcrypt-hashed password.
func (r *Repository) CreateUser(ctx context.Context, u User, plainPassword string) (int64, error) {
	hashed, err := hashPassword(plainPassword)
	if err != nil {
		return 0, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password, nama, level, nip, nim)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id_user
	`, u.Username, hashed, u.Nama, u.Level, u.NIP, u.NIM)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateUserPassword rehashes and replaces an account password.
func (r *Repository) UpdateUserPassword(ctx context.Context, idUser int64, plainPassword string) error {
	hashed, err := hashPassword(plainPassword)
	if err != nil {
		return err
	}
	return r.execOne(ctx, `UPDATE users SET password = $1 WHERE id_user = $2`, hashed, idUser)
}

// DeleteUser removes an account.
func (r *Repository) DeleteUser(ctx context.Context, idUser int64) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id_user = $1`, idUser)
}

// ---------- Dosen ----------

// ListDosen returns lecturers with their account usernames.
func (r *Repository) ListDosen(ctx context.Context) ([]Dosen, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.nip, d.nama, d.email, d.no_hp, d.face_registered, u.username
		FROM dosen d
		LEFT JOIN users u ON d.nip = u.nip AND u.level = 'dosen'
		ORDER BY d.nip
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Dosen
	for rows.Next() {
		var d Dosen
		if err := rows.Scan(&d.NIP, &d.Nama, &d.Email, &d.NoHP, &d.FaceRegistered, &d.Username); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// CreateDosen provisions a lecturer and their account in one transaction.
func (r *Repository) CreateDosen(ctx context.Context, d Dosen, username, plainPassword string) error {
	hashed, err := hashPassword(plainPassword)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO dosen (nip, nama, email, no_hp) VALUES ($1, $2, $3, $4)
	`, d.NIP, d.Nama, d.Email, d.NoHP); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, password, nama, level, nip) VALUES ($1, $2, $3, 'dosen', $4)
	`, username, hashed, d.Nama, d.NIP); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateDosen replaces the mutable lecturer fields.
func (r *Repository) UpdateDosen(ctx context.Context, d Dosen) error {
	return r.execOne(ctx, `
		UPDATE dosen SET nama = $1, email = $2, no_hp = $3 WHERE nip = $4
	`, d.Nama, d.Email, d.NoHP, d.NIP)
}

// DeleteDosen removes a lecturer and their account.
func (r *Repository) DeleteDosen(ctx context.Context, nip string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE nip = $1 AND level = 'dosen'`, nip); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM dosen WHERE nip = $1`, nip)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// ---------- Mahasiswa ----------

// ListMahasiswa returns students with account username and class name.
func (r *Repository) ListMahasiswa(ctx context.Context) ([]Mahasiswa, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.nim, m.nama, m.email, m.angkatan, m.id_kelas, m.face_registered, u.username, k.nama_kelas
		FROM mahasiswa m
		LEFT JOIN users u ON m.nim = u.nim AND u.level = 'mahasiswa'
		LEFT JOIN kelas k ON m.id_kelas = k.id_kelas
		ORDER BY m.nim
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Mahasiswa
	for rows.Next() {
		var m Mahasiswa
		if err := rows.Scan(&m.NIM, &m.Nama, &m.Email, &m.Angkatan, &m.IDKelas, &m.FaceRegistered, &m.Username, &m.NamaKelas); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// CreateMahasiswa provisions a student and their account in one transaction.
func (r *Repository) CreateMahasiswa(ctx context.Context, m Mahasiswa, username, plainPassword string) error {
	hashed, err := hashPassword(plainPassword)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO mahasiswa (nim, nama, email, angkatan, id_kelas, face_registered)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`, m.NIM, m.Nama, m.Email, m.Angkatan, m.IDKelas); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, password, nama, level, nim) VALUES ($1, $2, $3, 'mahasiswa', $4)
	`, username, hashed, m.Nama, m.NIM); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateMahasiswa replaces the mutable student fields.
func (r *Repository) UpdateMahasiswa(ctx context.Context, m Mahasiswa) error {
	return r.execOne(ctx, `
		UPDATE mahasiswa SET nama = $1, email = $2, angkatan = $3, id_kelas = $4 WHERE nim = $5
	`, m.Nama, m.Email, m.Angkatan, m.IDKelas, m.NIM)
}

// DeleteMahasiswa removes a student and their account.
func (r *Repository) DeleteMahasiswa(ctx context.Context, nim string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE nim = $1 AND level = 'mahasiswa'`, nim); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM mahasiswa WHERE nim = $1`, nim)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// ---------- Kelas ----------

// ListKelas returns classes with their course.
func (r *Repository) ListKelas(ctx context.Context) ([]Kelas, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id_kelas, nama_kelas, ruangan, hari, jam_mulai, jam_selesai, id_matakuliah
		FROM kelas ORDER BY nama_kelas
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Kelas
	for rows.Next() {
		var k Kelas
		if err := rows.Scan(&k.IDKelas, &k.NamaKelas, &k.Ruangan, &k.Hari, &k.JamMulai, &k.JamSelesai, &k.IDMatakuliah); err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, rows.Err()
}

// CreateKelas stores a class.
func (r *Repository) CreateKelas(ctx context.Context, k Kelas) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO kelas (nama_kelas, ruangan, hari, jam_mulai, jam_selesai, id_matakuliah)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id_kelas
	`, k.NamaKelas, k.Ruangan, k.Hari, k.JamMulai, k.JamSelesai, k.IDMatakuliah)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateKelas replaces the class row.
func (r *Repository) UpdateKelas(ctx context.Context, k Kelas) error {
	return r.execOne(ctx, `
		UPDATE kelas SET nama_kelas = $1, ruangan = $2, hari = $3, jam_mulai = $4, jam_selesai = $5, id_matakuliah = $6
		WHERE id_kelas = $7
	`, k.NamaKelas, k.Ruangan, k.Hari, k.JamMulai, k.JamSelesai, k.IDMatakuliah, k.IDKelas)
}

// DeleteKelas removes a class; meetings cascade at the schema level.
func (r *Repository) DeleteKelas(ctx context.Context, idKelas int64) error {
	return r.execOne(ctx, `DELETE FROM kelas WHERE id_kelas = $1`, idKelas)
}

// ---------- Matakuliah ----------

// ListMatakuliah returns all courses.
func (r *Repository) ListMatakuliah(ctx context.Context) ([]Matakuliah, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id_matakuliah, kode_mk, nama_matakuliah, sks, nip_dosen
		FROM matakuliah ORDER BY kode_mk
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Matakuliah
	for rows.Next() {
		var mk Matakuliah
		if err := rows.Scan(&mk.IDMatakuliah, &mk.KodeMK, &mk.NamaMatakuliah, &mk.SKS, &mk.NIPDosen); err != nil {
			return nil, err
		}
		res = append(res, mk)
	}
	return res, rows.Err()
}

// CreateMatakuliah stores a course.
func (r *Repository) CreateMatakuliah(ctx context.Context, mk Matakuliah) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO matakuliah (kode_mk, nama_matakuliah, sks, nip_dosen)
		VALUES ($1, $2, $3, $4)
		RETURNING id_matakuliah
	`, mk.KodeMK, mk.NamaMatakuliah, mk.SKS, mk.NIPDosen)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateMatakuliah replaces the course row.
func (r *Repository) UpdateMatakuliah(ctx context.Context, mk Matakuliah) error {
	return r.execOne(ctx, `
		UPDATE matakuliah SET kode_mk = $1, nama_matakuliah = $2, sks = $3, nip_dosen = $4
		WHERE id_matakuliah = $5
	`, mk.KodeMK, mk.NamaMatakuliah, mk.SKS, mk.NIPDosen, mk.IDMatakuliah)
}

// DeleteMatakuliah removes a course.
func (r *Repository) DeleteMatakuliah(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM matakuliah WHERE id_matakuliah = $1`, id)
}

// ---------- Pertemuan ----------

// ListPertemuan returns meetings, optionally filtered by class.
func (r *Repository) ListPertemuan(ctx context.Context, idKelas int64) ([]Pertemuan, error) {
	query := `
		SELECT id_pertemuan, id_kelas, pertemuan_ke, tanggal, topik
		FROM pertemuan`
	args := []any{}
	if idKelas > 0 {
		query += ` WHERE id_kelas = $1`
		args = append(args, idKelas)
	}
	query += ` ORDER BY tanggal, pertemuan_ke`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Pertemuan
	for rows.Next() {
		var p Pertemuan
		if err := rows.Scan(&p.IDPertemuan, &p.IDKelas, &p.PertemuanKe, &p.Tanggal, &p.Topik); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// CreatePertemuan stores a meeting.
func (r *Repository) CreatePertemuan(ctx context.Context, p Pertemuan) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO pertemuan (id_kelas, pertemuan_ke, tanggal, topik)
		VALUES ($1, $2, $3, $4)
		RETURNING id_pertemuan
	`, p.IDKelas, p.PertemuanKe, p.Tanggal, p.Topik)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdatePertemuan replaces the meeting row.
func (r *Repository) UpdatePertemuan(ctx context.Context, p Pertemuan) error {
	return r.execOne(ctx, `
		UPDATE pertemuan SET id_kelas = $1, pertemuan_ke = $2, tanggal = $3, topik = $4
		WHERE id_pertemuan = $5
	`, p.IDKelas, p.PertemuanKe, p.Tanggal, p.Topik, p.IDPertemuan)
}

// DeletePertemuan removes a meeting.
func (r *Repository) DeletePertemuan(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM pertemuan WHERE id_pertemuan = $1`, id)
}

// execOne runs a statement that must touch exactly one row.
func (r *Repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
