package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submissions counts check-in attempts by outcome. Outcomes mirror the
// pipeline's rejection steps so dashboards can tell a geofence miss from
// a duplicate.
var Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "absensi_submissions_total",
	Help: "Attendance submissions by outcome.",
}, []string{"outcome"})

// FaceVerifications counts oracle verdicts.
var FaceVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "absensi_face_verifications_total",
	Help: "Face verification attempts by verdict.",
}, []string{"verdict"})

// Submission outcomes.
const (
	OutcomeAccepted     = "accepted"
	OutcomeClosed       = "session_closed"
	OutcomeExpired      = "session_expired"
	OutcomeDuplicate    = "duplicate"
	OutcomeOutOfRange   = "out_of_range"
	OutcomeVerifyFailed = "verification_failed"
	OutcomeBadRequest   = "bad_request"
	OutcomeStorageError = "storage_error"
)
