package attendance

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"absensi/internal/face"
	"absensi/internal/session"
)

type fakeSessions struct {
	sessions map[int64]*session.Session
}

func (f *fakeSessions) Get(_ context.Context, id int64) (*session.Session, error) {
	return f.sessions[id], nil
}

func (f *fakeSessions) CloseLazy(_ context.Context, id int64) error {
	if s, ok := f.sessions[id]; ok {
		s.Status = session.StatusSelesai
	}
	return nil
}

type fakeRecords struct {
	// keyed by nim + "/" + meeting id
	records map[string]Record
}

func key(nim string, idPertemuan int64) string {
	return nim + "/" + strconv.FormatInt(idPertemuan, 10)
}

func (f *fakeRecords) HasForMeeting(_ context.Context, nim string, idPertemuan int64) (bool, error) {
	_, ok := f.records[key(nim, idPertemuan)]
	return ok, nil
}

func (f *fakeRecords) InsertUnique(_ context.Context, rec Record) (bool, error) {
	k := key(rec.NIM, rec.IDPertemuan)
	if _, ok := f.records[k]; ok {
		return false, nil
	}
	f.records[k] = rec
	return true, nil
}

func (f *fakeRecords) History(context.Context, string) ([]HistoryEntry, error) { return nil, nil }

type fakeVerifier struct {
	result face.Result
	logs   []face.ScanLog
}

func (f *fakeVerifier) Verify(context.Context, string, string) (face.Result, error) {
	return f.result, nil
}

func (f *fakeVerifier) LogScan(_ context.Context, entry face.ScanLog) error {
	f.logs = append(f.logs, entry)
	return nil
}

type fakeRedeemer struct {
	ok  bool
	msg string
}

func (f *fakeRedeemer) RedeemForSession(context.Context, string, int64) (bool, string, error) {
	return f.ok, f.msg, nil
}

type fakePublisher struct {
	published []Message
}

func (f *fakePublisher) Publish(_ context.Context, msg Message) error {
	f.published = append(f.published, msg)
	return nil
}

type fixture struct {
	sessions *fakeSessions
	records  *fakeRecords
	verifier *fakeVerifier
	redeemer *fakeRedeemer
	events   *fakePublisher
	svc      *Service
}

// Open session at the spec's end-to-end coordinates: (-6.200, 106.816),
// radius 50 m, duration 30 min.
func newFixture() *fixture {
	opened := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f := &fixture{
		sessions: &fakeSessions{sessions: map[int64]*session.Session{
			1: {
				ID: 1, IDPertemuan: 7, NIPDosen: "198001011",
				WaktuBuka: opened, WaktuTutup: opened.Add(30 * time.Minute),
				DurasiMenit: 30, LokasiLat: -6.200, LokasiLong: 106.816,
				RadiusMeter: 50, Status: session.StatusAktif,
			},
		}},
		records:  &fakeRecords{records: map[string]Record{}},
		verifier: &fakeVerifier{},
		redeemer: &fakeRedeemer{},
		events:   &fakePublisher{},
	}
	f.svc = NewService(f.sessions, f.records, f.verifier, f.redeemer, f.events)
	f.svc.now = func() time.Time { return opened.Add(5 * time.Minute) }
	return f
}

func TestSubmitManualAccepted(t *testing.T) {
	f := newFixture()

	ok, msg, err := f.svc.Submit(context.Background(), "2110511001", 1, MethodManual, -6.2001, 106.8161, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !ok {
		t.Fatalf("expected acceptance, got %q", msg)
	}
	rec, found := f.records.records[key("2110511001", 7)]
	if !found {
		t.Fatal("no record created")
	}
	if rec.Status != StatusHadir || rec.Confidence != 0.0 || rec.Metode != MethodManual {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(f.events.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(f.events.published))
	}
}

func TestSubmitDuplicateRejectedAcrossMethods(t *testing.T) {
	f := newFixture()

	ok, _, err := f.svc.Submit(context.Background(), "2110511001", 1, MethodManual, -6.2001, 106.8161, "")
	if err != nil || !ok {
		t.Fatalf("first submit failed: %v", err)
	}

	f.verifier.result = face.Result{Match: true, Confidence: 0.9}
	for _, m := range []Method{MethodManual, MethodFace, MethodQR} {
		ok, msg, err := f.svc.Submit(context.Background(), "2110511001", 1, m, -6.2001, 106.8161, "evidence")
		if err != nil {
			t.Fatalf("Submit(%s): %v", m, err)
		}
		if ok || msg != "already submitted for this meeting" {
			t.Fatalf("method %s: expected duplicate rejection, got ok=%v msg=%q", m, ok, msg)
		}
	}
	if len(f.records.records) != 1 {
		t.Fatalf("record count = %d, want 1", len(f.records.records))
	}
}

func TestSubmitUnknownSessionRejected(t *testing.T) {
	f := newFixture()

	ok, msg, err := f.svc.Submit(context.Background(), "2110511001", 99, MethodManual, -6.2001, 106.8161, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ok || msg != "session not found or already closed" {
		t.Fatalf("unexpected: ok=%v msg=%q", ok, msg)
	}
}

func TestSubmitAfterWindowClosesSessionLazily(t *testing.T) {
	f := newFixture()
	f.svc.now = func() time.Time {
		return f.sessions.sessions[1].WaktuBuka.Add(31 * time.Minute)
	}

	ok, msg, err := f.svc.Submit(context.Background(), "2110511001", 1, MethodManual, -6.2001, 106.8161, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ok || msg != "session has ended" {
		t.Fatalf("unexpected: ok=%v msg=%q", ok, msg)
	}
	if f.sessions.sessions[1].Status != session.StatusSelesai {
		t.Fatalf("session status = %q, want selesai", f.sessions.sessions[1].Status)
	}
	if len(f.records.records) != 0 {
		t.Fatal("no record should exist")
	}

	// A later submission hits the activeness check, not the expiry path.
	ok, msg, err = f.svc.Submit(context.Background(), "2110511002", 1, MethodManual, -6.2001, 106.8161, "")
	if err != nil || ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	if msg != "session not found or already closed" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestSubmitOutsideGeofenceRejectedRegardlessOfMethod(t *testing.T) {
	f := newFixture()
	f.verifier.result = face.Result{Match: true, Confidence: 0.95}
	f.redeemer.ok = true

	// ~1.1 km north of the geofence center.
	for _, m := range []Method{MethodManual, MethodFace, MethodQR} {
		ok, msg, err := f.svc.Submit(context.Background(), "2110511001", 1, m, -6.190, 106.816, "evidence")
		if err != nil {
			t.Fatalf("Submit(%s): %v", m, err)
		}
		if ok {
			t.Fatalf("method %s: accepted outside radius", m)
		}
		if !strings.Contains(msg, "outside allowed radius") || !strings.Contains(msg, "maximum 50 m") {
			t.Fatalf("method %s: unexpected message %q", m, msg)
		}
	}
	if len(f.verifier.logs) != 0 {
		t.Fatal("verification must not run when the geofence check fails")
	}
	if len(f.records.records) != 0 {
		t.Fatal("no record should exist")
	}
}

func TestSubmitFaceMatchRecordsConfidence(t *testing.T) {
	f := newFixture()
	f.verifier.result = face.Result{Match: true, Confidence: 0.87, Message: "face matched"}

	ok, _, err := f.svc.Submit(context.Background(), "2110511001", 1, MethodFace, -6.2001, 106.8161, "img")
	if err != nil || !ok {
		t.Fatalf("Submit: ok=%v err=%v", ok, err)
	}
	rec := f.records.records[key("2110511001", 7)]
	if rec.Confidence != 0.87 || rec.Metode != MethodFace {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(f.verifier.logs) != 1 || f.verifier.logs[0].Action != "verify" {
		t.Fatalf("unexpected scan log: %+v", f.verifier.logs)
	}
}

func TestSubmitFaceMismatchLogsButCreatesNoRecord(t *testing.T) {
	f := newFixture()
	f.verifier.result = face.Result{Match: false, Confidence: 0.31, Message: "face did not match"}

	ok, msg, err := f.svc.Submit(context.Background(), "2110511001", 1, MethodFace, -6.2001, 106.8161, "img")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ok || !strings.Contains(msg, "face did not match") {
		t.Fatalf("unexpected: ok=%v msg=%q", ok, msg)
	}
	if len(f.verifier.logs) != 1 {
		t.Fatalf("scan log entries = %d, want 1", len(f.verifier.logs))
	}
	logged := f.verifier.logs[0]
	if logged.Action != "failed" || logged.Confidence != 0.31 {
		t.Fatalf("unexpected scan log: %+v", logged)
	}
	if len(f.records.records) != 0 {
		t.Fatal("no record should exist after a mismatch")
	}
}

func TestSubmitFaceWithoutImageRejected(t *testing.T) {
	f := newFixture()

	ok, msg, err := f.svc.Submit(context.Background(), "2110511001", 1, MethodFace, -6.2001, 106.8161, "")
	if err != nil || ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	if msg != "face image required for verification" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestSubmitQRSetsFullConfidence(t *testing.T) {
	f := newFixture()
	f.redeemer.ok = true

	ok, _, err := f.svc.Submit(context.Background(), "2110511001", 1, MethodQR, -6.2001, 106.8161, "AB12CD34")
	if err != nil || !ok {
		t.Fatalf("Submit: ok=%v err=%v", ok, err)
	}
	rec := f.records.records[key("2110511001", 7)]
	if rec.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", rec.Confidence)
	}
}

func TestSubmitQRPropagatesLedgerRejection(t *testing.T) {
	f := newFixture()
	f.redeemer.ok = false
	f.redeemer.msg = "barcode has expired"

	ok, msg, err := f.svc.Submit(context.Background(), "2110511001", 1, MethodQR, -6.2001, 106.8161, "AB12CD34")
	if err != nil || ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	if msg != "barcode has expired" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestParseMethodClosedSet(t *testing.T) {
	for _, valid := range []string{"face_recognition", "qr_code", "manual"} {
		if _, err := ParseMethod(valid); err != nil {
			t.Fatalf("ParseMethod(%q): %v", valid, err)
		}
	}
	if _, err := ParseMethod("telepathy"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
