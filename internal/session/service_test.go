package session

import (
	"context"
	"testing"
	"time"
)

type fakeStore struct {
	sessions map[int64]*Session
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[int64]*Session{}, nextID: 1}
}

func (f *fakeStore) Insert(_ context.Context, s Session) (int64, error) {
	for _, existing := range f.sessions {
		if existing.IDPertemuan == s.IDPertemuan && existing.Status == StatusAktif {
			return 0, ErrActiveExists
		}
	}
	s.ID = f.nextID
	s.Status = StatusAktif
	f.sessions[s.ID] = &s
	f.nextID++
	return s.ID, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Session, error) {
	return f.sessions[id], nil
}

func (f *fakeStore) GetOwned(_ context.Context, id int64, nip string) (*Session, error) {
	s := f.sessions[id]
	if s == nil || s.NIPDosen != nip {
		return nil, nil
	}
	return s, nil
}

func (f *fakeStore) Close(_ context.Context, id int64) error {
	if s, ok := f.sessions[id]; ok {
		s.Status = StatusSelesai
	}
	return nil
}

func (f *fakeStore) ActiveForStudent(context.Context, string) ([]Session, error) {
	return nil, nil
}
func (f *fakeStore) Roster(context.Context, int64) ([]RosterEntry, error) { return nil, nil }
func (f *fakeStore) Rekap(context.Context, int64) ([]RekapEntry, error)  { return nil, nil }

func TestOpenSetsWindowFromDuration(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 0)
	opened := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return opened }

	id, msg, err := svc.Open(context.Background(), 7, "198001011", 30, -6.200, 106.816, 50)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected session id, got message %q", msg)
	}
	s := store.sessions[id]
	if !s.WaktuTutup.Equal(opened.Add(30 * time.Minute)) {
		t.Fatalf("close time = %v, want open+30m", s.WaktuTutup)
	}
	if s.Status != StatusAktif {
		t.Fatalf("status = %q, want aktif", s.Status)
	}
}

func TestOpenRejectsSecondActiveSession(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 0)

	if id, _, err := svc.Open(context.Background(), 7, "198001011", 30, 0, 0, 50); err != nil || id == 0 {
		t.Fatalf("first open failed: id=%d err=%v", id, err)
	}
	id, msg, err := svc.Open(context.Background(), 7, "198001011", 30, 0, 0, 50)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id != 0 || msg != "this meeting already has an active session" {
		t.Fatalf("expected rejection, got id=%d msg=%q", id, msg)
	}
}

func TestOpenAllowedAfterClose(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 0)

	id, _, err := svc.Open(context.Background(), 7, "198001011", 30, 0, 0, 50)
	if err != nil || id == 0 {
		t.Fatalf("open failed: %v", err)
	}
	if err := svc.CloseLazy(context.Background(), id); err != nil {
		t.Fatalf("CloseLazy: %v", err)
	}
	// Sessions are never reopened; re-attendance needs a fresh session.
	id2, msg, err := svc.Open(context.Background(), 7, "198001011", 15, 0, 0, 50)
	if err != nil || id2 == 0 {
		t.Fatalf("reopen after close failed: id=%d msg=%q err=%v", id2, msg, err)
	}
	if id2 == id {
		t.Fatalf("expected a new session id, got the old one")
	}
}

func TestOpenValidatesInputs(t *testing.T) {
	svc := NewService(newFakeStore(), nil, 0)

	if id, msg, err := svc.Open(context.Background(), 7, "x", 0, 0, 0, 50); err != nil || id != 0 || msg != "duration must be positive" {
		t.Fatalf("unexpected: id=%d msg=%q err=%v", id, msg, err)
	}
	if id, msg, err := svc.Open(context.Background(), 7, "x", 30, 0, 0, 0); err != nil || id != 0 || msg != "radius must be positive" {
		t.Fatalf("unexpected: id=%d msg=%q err=%v", id, msg, err)
	}
}

func TestCloseLazyIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, 0)
	id, _, _ := svc.Open(context.Background(), 7, "x", 30, 0, 0, 50)

	if err := svc.CloseLazy(context.Background(), id); err != nil {
		t.Fatalf("CloseLazy: %v", err)
	}
	if err := svc.CloseLazy(context.Background(), id); err != nil {
		t.Fatalf("second CloseLazy: %v", err)
	}
	if store.sessions[id].Status != StatusSelesai {
		t.Fatalf("status = %q, want selesai", store.sessions[id].Status)
	}
}
