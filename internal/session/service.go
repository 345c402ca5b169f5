package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, s Session) (int64, error)
	GetByID(ctx context.Context, id int64) (*Session, error)
	GetOwned(ctx context.Context, id int64, nipDosen string) (*Session, error)
	Close(ctx context.Context, id int64) error
	ActiveForStudent(ctx context.Context, nim string) ([]Session, error)
	Roster(ctx context.Context, idSesi int64) ([]RosterEntry, error)
	Rekap(ctx context.Context, idKelas int64) ([]RekapEntry, error)
}

// Service manages session lifecycle. Sessions close lazily: the
// submission pipeline closes them when a request arrives past the window.
type Service struct {
	store    Store
	cache    *redis.Client // nil disables recap caching
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService creates a registry service. cache may be nil.
func NewService(store Store, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{store: store, cache: cache, cacheTTL: cacheTTL, now: time.Now}
}

// RekapCacheKey is the cache key for one class recap; the worker deletes
// it when a new attendance record lands.
func RekapCacheKey(idKelas int64) string {
	return "rekap:" + strconv.FormatInt(idKelas, 10)
}

// Open starts a session for a meeting. At most one active session per
// meeting; a second open is rejected with a message.
func (s *Service) Open(ctx context.Context, idPertemuan int64, nipDosen string, durasiMenit int, lat, long float64, radiusMeter int) (int64, string, error) {
	if durasiMenit <= 0 {
		return 0, "duration must be positive", nil
	}
	if radiusMeter <= 0 {
		return 0, "radius must be positive", nil
	}

	buka := s.now()
	sess := Session{
		IDPertemuan: idPertemuan,
		NIPDosen:    nipDosen,
		WaktuBuka:   buka,
		WaktuTutup:  buka.Add(time.Duration(durasiMenit) * time.Minute),
		DurasiMenit: durasiMenit,
		LokasiLat:   lat,
		LokasiLong:  long,
		RadiusMeter: radiusMeter,
	}
	id, err := s.store.Insert(ctx, sess)
	if err != nil {
		if errors.Is(err, ErrActiveExists) {
			return 0, "this meeting already has an active session", nil
		}
		return 0, "", err
	}
	return id, "attendance session opened", nil
}

// Get returns a session by id, nil when it does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*Session, error) {
	return s.store.GetByID(ctx, id)
}

// GetOwned returns a session only when nipDosen opened it.
func (s *Service) GetOwned(ctx context.Context, id int64, nipDosen string) (*Session, error) {
	return s.store.GetOwned(ctx, id, nipDosen)
}

// CloseLazy marks a session closed; safe to call repeatedly.
func (s *Service) CloseLazy(ctx context.Context, id int64) error {
	return s.store.Close(ctx, id)
}

// ActiveForStudent returns active sessions serving the student's class.
func (s *Service) ActiveForStudent(ctx context.Context, nim string) ([]Session, error) {
	return s.store.ActiveForStudent(ctx, nim)
}

// Roster returns the live per-student view of one session.
func (s *Service) Roster(ctx context.Context, idSesi int64) ([]RosterEntry, error) {
	return s.store.Roster(ctx, idSesi)
}

// Rekap returns the per-class attendance aggregation, served from the
// Redis cache when warm. Cache errors degrade to a direct query.
func (s *Service) Rekap(ctx context.Context, idKelas int64) ([]RekapEntry, error) {
	key := RekapCacheKey(idKelas)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Result(); err == nil {
			var cached []RekapEntry
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	rekap, err := s.store.Rekap(ctx, idKelas)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && rekap != nil {
		if encoded, err := json.Marshal(rekap); err == nil {
			if err := s.cache.Set(ctx, key, encoded, s.cacheTTL).Err(); err != nil {
				log.Printf("rekap cache set failed for kelas %d: %v", idKelas, err)
			}
		}
	}
	return rekap, nil
}
