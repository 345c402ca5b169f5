package barcode

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"absensi/internal/session"
)

// Store is the persistence surface the ledger needs.
type Store interface {
	Insert(ctx context.Context, b Barcode) error
	GetForStudent(ctx context.Context, kode, nim string) (*ClassScoped, error)
	GetForSession(ctx context.Context, kode string, idSesi int64) (*Barcode, error)
	Expire(ctx context.Context, kode string) error
}

// Sessions is the slice of the session registry the ledger consults.
type Sessions interface {
	Get(ctx context.Context, id int64) (*session.Session, error)
	GetOwned(ctx context.Context, id int64, nipDosen string) (*session.Session, error)
}

// Redemption identifies the session a redeemed code grants entry to.
type Redemption struct {
	IDSesi      int64 `json:"id_sesi"`
	IDPertemuan int64 `json:"id_pertemuan"`
}

// Service issues and redeems barcodes. Redemption does not mark a code
// spent: one code serves the whole class, and the per-meeting duplicate
// check in the submission pipeline is the reuse barrier.
type Service struct {
	store      Store
	sessions   Sessions
	defaultTTL time.Duration
	now        func() time.Time
}

// NewService creates a ledger. defaultTTL applies when the lecturer does
// not pass a duration; 10 minutes is the usual default.
func NewService(store Store, sessions Sessions, defaultTTL time.Duration) *Service {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &Service{store: store, sessions: sessions, defaultTTL: defaultTTL, now: time.Now}
}

// Issue generates a new code for a session owned by the issuing lecturer.
// A session may accumulate many sequentially issued codes.
func (s *Service) Issue(ctx context.Context, idSesi int64, nipDosen string, durasiMenit int) (string, string, error) {
	sess, err := s.sessions.GetOwned(ctx, idSesi, nipDosen)
	if err != nil {
		return "", "", err
	}
	if sess == nil {
		return "", "session not found or not owned by this lecturer", nil
	}

	ttl := s.defaultTTL
	if durasiMenit > 0 {
		ttl = time.Duration(durasiMenit) * time.Minute
	}

	kode := newCode()
	b := Barcode{
		Kode:            kode,
		IDSesi:          idSesi,
		NIPDosen:        nipDosen,
		WaktuKadaluarsa: s.now().Add(ttl),
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return "", "", err
	}
	return kode, "barcode created", nil
}

// Redeem validates a code for a student: the code must exist, be active,
// serve the student's class, not be past its expiry (expired codes are
// lazily marked so), and its owning session must still be active.
func (s *Service) Redeem(ctx context.Context, nim, kode string) (*Redemption, string, error) {
	scoped, err := s.store.GetForStudent(ctx, kode, nim)
	if err != nil {
		return nil, "", err
	}
	if scoped == nil {
		return nil, "barcode not valid or not for your class", nil
	}

	if s.now().After(scoped.WaktuKadaluarsa) {
		if err := s.store.Expire(ctx, kode); err != nil {
			return nil, "", err
		}
		return nil, "barcode has expired", nil
	}

	sess, err := s.sessions.Get(ctx, scoped.IDSesi)
	if err != nil {
		return nil, "", err
	}
	if sess == nil || sess.Status != session.StatusAktif {
		return nil, "the owning attendance session is already closed", nil
	}

	return &Redemption{IDSesi: scoped.IDSesi, IDPertemuan: scoped.IDPertemuan}, "barcode verified", nil
}

// RedeemForSession validates a code in the scope of a specific session,
// used by the submission pipeline after it has already checked the
// session itself. Expired codes are lazily marked expired.
func (s *Service) RedeemForSession(ctx context.Context, kode string, idSesi int64) (bool, string, error) {
	b, err := s.store.GetForSession(ctx, kode, idSesi)
	if err != nil {
		return false, "", err
	}
	if b == nil {
		return false, "barcode not valid for this session", nil
	}
	if s.now().After(b.WaktuKadaluarsa) {
		if err := s.store.Expire(ctx, kode); err != nil {
			return false, "", err
		}
		return false, "barcode has expired", nil
	}
	return true, "barcode verified", nil
}

// newCode returns a short uppercase code; collisions are negligible at
// issuance scale (first 8 hex chars of a UUID).
func newCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
