package barcode

import (
	"context"
	"testing"
	"time"

	"absensi/internal/session"
)

type fakeStore struct {
	codes map[string]*Barcode
	// class scoping: nim -> set of sessions serving that student
	classSessions map[string]map[int64]bool
	meetings      map[int64]int64 // idSesi -> idPertemuan
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		codes:         map[string]*Barcode{},
		classSessions: map[string]map[int64]bool{},
		meetings:      map[int64]int64{},
	}
}

func (f *fakeStore) Insert(_ context.Context, b Barcode) error {
	b.Status = StatusAktif
	f.codes[b.Kode] = &b
	return nil
}

func (f *fakeStore) GetForStudent(_ context.Context, kode, nim string) (*ClassScoped, error) {
	b, ok := f.codes[kode]
	if !ok || b.Status != StatusAktif {
		return nil, nil
	}
	if !f.classSessions[nim][b.IDSesi] {
		return nil, nil
	}
	return &ClassScoped{Kode: b.Kode, IDSesi: b.IDSesi, IDPertemuan: f.meetings[b.IDSesi], WaktuKadaluarsa: b.WaktuKadaluarsa}, nil
}

func (f *fakeStore) GetForSession(_ context.Context, kode string, idSesi int64) (*Barcode, error) {
	b, ok := f.codes[kode]
	if !ok || b.Status != StatusAktif || b.IDSesi != idSesi {
		return nil, nil
	}
	return b, nil
}

func (f *fakeStore) Expire(_ context.Context, kode string) error {
	if b, ok := f.codes[kode]; ok {
		b.Status = StatusKadaluarsa
	}
	return nil
}

type fakeSessions struct {
	sessions map[int64]*session.Session
}

func (f *fakeSessions) Get(_ context.Context, id int64) (*session.Session, error) {
	return f.sessions[id], nil
}

func (f *fakeSessions) GetOwned(_ context.Context, id int64, nip string) (*session.Session, error) {
	s := f.sessions[id]
	if s == nil || s.NIPDosen != nip {
		return nil, nil
	}
	return s, nil
}

func setup() (*fakeStore, *fakeSessions, *Service) {
	store := newFakeStore()
	sessions := &fakeSessions{sessions: map[int64]*session.Session{
		1: {ID: 1, IDPertemuan: 10, NIPDosen: "198001011", Status: session.StatusAktif},
	}}
	store.meetings[1] = 10
	store.classSessions["2110511001"] = map[int64]bool{1: true}
	svc := NewService(store, sessions, 10*time.Minute)
	return store, sessions, svc
}

func TestIssueRequiresOwnership(t *testing.T) {
	_, _, svc := setup()

	kode, msg, err := svc.Issue(context.Background(), 1, "199902022", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if kode != "" || msg != "session not found or not owned by this lecturer" {
		t.Fatalf("expected ownership rejection, got kode=%q msg=%q", kode, msg)
	}
}

func TestIssueGeneratesShortUniqueCodes(t *testing.T) {
	_, _, svc := setup()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		kode, _, err := svc.Issue(context.Background(), 1, "198001011", 5)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if len(kode) != 8 {
			t.Fatalf("code length = %d, want 8", len(kode))
		}
		if seen[kode] {
			t.Fatalf("duplicate code %q", kode)
		}
		seen[kode] = true
	}
}

func TestRedeemHappyPath(t *testing.T) {
	_, _, svc := setup()
	kode, _, err := svc.Issue(context.Background(), 1, "198001011", 10)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	red, msg, err := svc.Redeem(context.Background(), "2110511001", kode)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if red == nil {
		t.Fatalf("redeem rejected: %q", msg)
	}
	if red.IDSesi != 1 || red.IDPertemuan != 10 {
		t.Fatalf("unexpected redemption: %+v", red)
	}
}

func TestRedeemRejectsForeignClass(t *testing.T) {
	_, _, svc := setup()
	kode, _, _ := svc.Issue(context.Background(), 1, "198001011", 10)

	red, msg, err := svc.Redeem(context.Background(), "2110511999", kode)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if red != nil || msg != "barcode not valid or not for your class" {
		t.Fatalf("expected class-scope rejection, got red=%+v msg=%q", red, msg)
	}
}

func TestRedeemExpiryIsLazy(t *testing.T) {
	store, _, svc := setup()
	kode, _, _ := svc.Issue(context.Background(), 1, "198001011", 10)

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	red, msg, err := svc.Redeem(context.Background(), "2110511001", kode)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if red != nil || msg != "barcode has expired" {
		t.Fatalf("expected expiry rejection, got red=%+v msg=%q", red, msg)
	}
	if store.codes[kode].Status != StatusKadaluarsa {
		t.Fatalf("expired code not marked, status = %q", store.codes[kode].Status)
	}

	// A second read now reports the code as gone, not expired again.
	red, msg, err = svc.Redeem(context.Background(), "2110511001", kode)
	if err != nil || red != nil {
		t.Fatalf("unexpected: red=%+v err=%v", red, err)
	}
	if msg != "barcode not valid or not for your class" {
		t.Fatalf("unexpected message after lazy expire: %q", msg)
	}
}

func TestRedeemRejectsClosedOwningSession(t *testing.T) {
	_, sessions, svc := setup()
	kode, _, _ := svc.Issue(context.Background(), 1, "198001011", 10)

	sessions.sessions[1].Status = session.StatusSelesai
	red, msg, err := svc.Redeem(context.Background(), "2110511001", kode)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if red != nil || msg != "the owning attendance session is already closed" {
		t.Fatalf("expected closed-session rejection, got red=%+v msg=%q", red, msg)
	}
}

func TestRedeemForSessionScopesToSession(t *testing.T) {
	_, _, svc := setup()
	kode, _, _ := svc.Issue(context.Background(), 1, "198001011", 10)

	ok, _, err := svc.RedeemForSession(context.Background(), kode, 1)
	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	ok, msg, err := svc.RedeemForSession(context.Background(), kode, 2)
	if err != nil {
		t.Fatalf("RedeemForSession: %v", err)
	}
	if ok || msg != "barcode not valid for this session" {
		t.Fatalf("expected session-scope rejection, got ok=%v msg=%q", ok, msg)
	}
}
