package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"absensi/internal/face"
	"absensi/internal/geo"
	"absensi/internal/metrics"
	"absensi/internal/queue"
	"absensi/internal/session"
)

// Sessions is the slice of the session registry the pipeline needs.
type Sessions interface {
	Get(ctx context.Context, id int64) (*session.Session, error)
	CloseLazy(ctx context.Context, id int64) error
}

// Verifier is the face verification oracle plus its audit log.
type Verifier interface {
	Verify(ctx context.Context, nim, imageBase64 string) (face.Result, error)
	LogScan(ctx context.Context, entry face.ScanLog) error
}

// Redeemer validates a barcode in the scope of one session.
type Redeemer interface {
	RedeemForSession(ctx context.Context, kode string, idSesi int64) (bool, string, error)
}

// Records is the attendance record store.
type Records interface {
	HasForMeeting(ctx context.Context, nim string, idPertemuan int64) (bool, error)
	InsertUnique(ctx context.Context, rec Record) (bool, error)
	History(ctx context.Context, nim string) ([]HistoryEntry, error)
}

// Publisher carries post-commit events; nil-safe via the noop below.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Message aliases the queue message so callers wire a queue.Queue directly.
type Message = queue.Message

// Service runs the submission pipeline: a fixed sequence of checks that
// short-circuits on the first failure. Rejections come back as
// (false, message); a non-nil error means the datastore failed.
type Service struct {
	sessions Sessions
	records  Records
	verifier Verifier
	redeemer Redeemer
	events   Publisher
	now      func() time.Time
}

// NewService wires the pipeline. events may be nil.
func NewService(sessions Sessions, records Records, verifier Verifier, redeemer Redeemer, events Publisher) *Service {
	return &Service{
		sessions: sessions,
		records:  records,
		verifier: verifier,
		redeemer: redeemer,
		events:   events,
		now:      time.Now,
	}
}

// Submit decides one check-in attempt. On acceptance exactly one new
// record exists for (student, meeting); on rejection the only side
// effects are the lazy session close and the face-scan audit log write,
// both intentional.
func (s *Service) Submit(ctx context.Context, nim string, idSesi int64, metode Method, lat, long float64, evidence string) (bool, string, error) {
	// 1. Session existence and activeness.
	sess, err := s.sessions.Get(ctx, idSesi)
	if err != nil {
		return s.fail(metrics.OutcomeStorageError, err)
	}
	if sess == nil || sess.Status != session.StatusAktif {
		metrics.Submissions.WithLabelValues(metrics.OutcomeClosed).Inc()
		return false, "session not found or already closed", nil
	}

	// 2. Expiry: close lazily once the window has passed.
	closeAt := sess.WaktuBuka.Add(time.Duration(sess.DurasiMenit) * time.Minute)
	if s.now().After(closeAt) {
		if err := s.sessions.CloseLazy(ctx, idSesi); err != nil {
			return s.fail(metrics.OutcomeStorageError, err)
		}
		metrics.Submissions.WithLabelValues(metrics.OutcomeExpired).Inc()
		return false, "session has ended", nil
	}

	// 3. One record per (student, meeting), across all of its sessions.
	already, err := s.records.HasForMeeting(ctx, nim, sess.IDPertemuan)
	if err != nil {
		return s.fail(metrics.OutcomeStorageError, err)
	}
	if already {
		metrics.Submissions.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return false, "already submitted for this meeting", nil
	}

	// 4. Geofence.
	dist := geo.Distance(lat, long, sess.LokasiLat, sess.LokasiLong)
	if dist > float64(sess.RadiusMeter) {
		metrics.Submissions.WithLabelValues(metrics.OutcomeOutOfRange).Inc()
		return false, fmt.Sprintf("outside allowed radius (%d m away, maximum %d m)",
			int(math.Round(dist)), sess.RadiusMeter), nil
	}

	// 5. Method-specific verification.
	var confidence float64
	switch metode {
	case MethodFace:
		if evidence == "" {
			metrics.Submissions.WithLabelValues(metrics.OutcomeBadRequest).Inc()
			return false, "face image required for verification", nil
		}
		res, err := s.verifier.Verify(ctx, nim, evidence)
		if err != nil {
			return s.fail(metrics.OutcomeStorageError, err)
		}
		action := "verify"
		verdict := "match"
		if !res.Match {
			action = "failed"
			verdict = "no_match"
		}
		metrics.FaceVerifications.WithLabelValues(verdict).Inc()
		if err := s.verifier.LogScan(ctx, face.ScanLog{
			UserType:   "mahasiswa",
			UserID:     nim,
			Action:     action,
			Confidence: res.Confidence,
			LokasiLat:  lat,
			LokasiLong: long,
		}); err != nil {
			return s.fail(metrics.OutcomeStorageError, err)
		}
		if !res.Match {
			metrics.Submissions.WithLabelValues(metrics.OutcomeVerifyFailed).Inc()
			return false, "face verification failed: " + res.Message, nil
		}
		confidence = res.Confidence

	case MethodQR:
		if evidence == "" {
			metrics.Submissions.WithLabelValues(metrics.OutcomeBadRequest).Inc()
			return false, "barcode required for verification", nil
		}
		ok, msg, err := s.redeemer.RedeemForSession(ctx, evidence, idSesi)
		if err != nil {
			return s.fail(metrics.OutcomeStorageError, err)
		}
		if !ok {
			metrics.Submissions.WithLabelValues(metrics.OutcomeVerifyFailed).Inc()
			return false, msg, nil
		}
		confidence = 1.0 // possession-based proof gets full trust

	case MethodManual:
		confidence = 0.0

	default:
		metrics.Submissions.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		return false, fmt.Sprintf("unknown attendance method %q", metode), nil
	}

	// 6. Commit. The unique insert also closes the check-then-act race.
	inserted, err := s.records.InsertUnique(ctx, Record{
		NIM:         nim,
		IDPertemuan: sess.IDPertemuan,
		IDSesi:      idSesi,
		Status:      StatusHadir,
		Metode:      metode,
		Confidence:  confidence,
		LokasiLat:   lat,
		LokasiLong:  long,
	})
	if err != nil {
		return s.fail(metrics.OutcomeStorageError, err)
	}
	if !inserted {
		metrics.Submissions.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return false, "already submitted for this meeting", nil
	}

	s.publishRecorded(ctx, nim, sess.IDPertemuan)
	metrics.Submissions.WithLabelValues(metrics.OutcomeAccepted).Inc()
	return true, "attendance recorded", nil
}

// History returns the student's attendance, newest meeting first.
func (s *Service) History(ctx context.Context, nim string) ([]HistoryEntry, error) {
	return s.records.History(ctx, nim)
}

func (s *Service) fail(outcome string, err error) (bool, string, error) {
	metrics.Submissions.WithLabelValues(outcome).Inc()
	return false, "", err
}

// publishRecorded is best-effort: a lost event means a stale cache until
// its TTL, never a lost record.
func (s *Service) publishRecorded(ctx context.Context, nim string, idPertemuan int64) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(RecordedEvent{NIM: nim, IDPertemuan: idPertemuan})
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, Message{Type: "attendance.recorded", Body: body}); err != nil {
		log.Printf("event publish failed for %s/%d: %v", nim, idPertemuan, err)
	}
}
