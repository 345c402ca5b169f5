package admin

import "time"

// User is an account row; Password is the bcrypt hash and never leaves
// the package in API responses.
type User struct {
	IDUser   int64   `json:"id_user"`
	Username string  `json:"username"`
	Password string  `json:"-"`
	Nama     string  `json:"nama"`
	Level    string  `json:"level"`
	NIP      *string `json:"nip,omitempty"`
	NIM      *string `json:"nim,omitempty"`
}

// Dosen is a lecturer.
type Dosen struct {
	NIP            string  `json:"nip"`
	Nama           string  `json:"nama"`
	Email          *string `json:"email,omitempty"`
	NoHP           *string `json:"no_hp,omitempty"`
	FaceRegistered bool    `json:"face_registered"`
	Username       *string `json:"username,omitempty"`
}

// Mahasiswa is a student.
type Mahasiswa struct {
	NIM            string  `json:"nim"`
	Nama           string  `json:"nama"`
	Email          *string `json:"email,omitempty"`
	Angkatan       int     `json:"angkatan"`
	IDKelas        *int64  `json:"id_kelas,omitempty"`
	FaceRegistered bool    `json:"face_registered"`
	Username       *string `json:"username,omitempty"`
	NamaKelas      *string `json:"nama_kelas,omitempty"`
}

// Kelas is a class: one course taught to one cohort on a schedule.
type Kelas struct {
	IDKelas      int64   `json:"id_kelas"`
	NamaKelas    string  `json:"nama_kelas"`
	Ruangan      *string `json:"ruangan,omitempty"`
	Hari         *string `json:"hari,omitempty"`
	JamMulai     *string `json:"jam_mulai,omitempty"`
	JamSelesai   *string `json:"jam_selesai,omitempty"`
	IDMatakuliah int64   `json:"id_matakuliah"`
}

// Matakuliah is a course.
type Matakuliah struct {
	IDMatakuliah   int64   `json:"id_matakuliah"`
	KodeMK         string  `json:"kode_mk"`
	NamaMatakuliah string  `json:"nama_matakuliah"`
	SKS            int     `json:"sks"`
	NIPDosen       *string `json:"nip_dosen,omitempty"`
}

// Pertemuan is one scheduled meeting of a class, the unit attendance
// duplication is checked against.
type Pertemuan struct {
	IDPertemuan int64     `json:"id_pertemuan"`
	IDKelas     int64     `json:"id_kelas"`
	PertemuanKe int       `json:"pertemuan_ke"`
	Tanggal     time.Time `json:"tanggal"`
	Topik       *string   `json:"topik,omitempty"`
}
