package face

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotRegistered is returned when a user has no stored descriptor.
var ErrNotRegistered = errors.New("face not registered")

// ScanLog is one row of the face-scan audit trail. Append-only.
type ScanLog struct {
	ID         int64     `json:"id"`
	UserType   string    `json:"user_type"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Confidence float64   `json:"confidence_score"`
	LokasiLat  float64   `json:"lokasi_lat"`
	LokasiLong float64   `json:"lokasi_long"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository persists face descriptors and the scan audit log in Postgres.
// Descriptors are stored as a JSON-encoded float vector on the owning
// dosen/mahasiswa row and overwritten on re-registration.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func tableFor(userType string) (table, pk string, err error) {
	switch userType {
	case "dosen":
		return "dosen", "nip", nil
	case "mahasiswa":
		return "mahasiswa", "nim", nil
	default:
		return "", "", fmt.Errorf("unknown user type %q", userType)
	}
}

// Descriptor loads the stored descriptor for a user.
func (r *Repository) Descriptor(ctx context.Context, userType, userID string) ([]float64, error) {
	table, pk, err := tableFor(userType)
	if err != nil {
		return nil, err
	}
	var raw sql.NullString
	row := r.db.QueryRowContext(ctx,
		`SELECT face_descriptor FROM `+table+` WHERE `+pk+` = $1 AND face_registered = TRUE`, userID)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	if !raw.Valid || raw.String == "" {
		return nil, ErrNotRegistered
	}
	var desc []float64
	if err := json.Unmarshal([]byte(raw.String), &desc); err != nil {
		return nil, fmt.Errorf("decode stored descriptor: %w", err)
	}
	return desc, nil
}

// SaveDescriptor stores (or overwrites) a user's descriptor and marks the
// account face-registered. photoURL may be empty when no image store is
// configured.
func (r *Repository) SaveDescriptor(ctx context.Context, userType, userID string, desc []float64, photoURL string) error {
	table, pk, err := tableFor(userType)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(desc)
	if err != nil {
		return err
	}
	if photoURL == "" {
		photoURL = "registered"
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET face_descriptor = $1, face_registered = TRUE, foto_wajah = $2 WHERE `+pk+` = $3`,
		string(encoded), photoURL, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", userType, userID)
	}
	return nil
}

// InsertScanLog appends one verification attempt to the audit log.
func (r *Repository) InsertScanLog(ctx context.Context, entry ScanLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO face_scan_log (user_type, user_id, action, confidence_score, lokasi_lat, lokasi_long)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.UserType, entry.UserID, entry.Action, entry.Confidence, entry.LokasiLat, entry.LokasiLong)
	return err
}

// ListScanLogs returns the audit log newest first.
func (r *Repository) ListScanLogs(ctx context.Context, limit int) ([]ScanLog, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_type, user_id, action, confidence_score, lokasi_lat, lokasi_long, created_at
		FROM face_scan_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []ScanLog
	for rows.Next() {
		var l ScanLog
		if err := rows.Scan(&l.ID, &l.UserType, &l.UserID, &l.Action, &l.Confidence, &l.LokasiLat, &l.LokasiLong, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
