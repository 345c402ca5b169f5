package face

import (
	"context"
	"errors"
	"log"
	"math"

	"absensi/internal/faceclient"
)

// Extractor maps an image to face descriptors, largest face first.
type Extractor interface {
	Extract(ctx context.Context, imageBase64 string) (*faceclient.ExtractResult, error)
}

// DescriptorStore reads and writes stored descriptors.
type DescriptorStore interface {
	Descriptor(ctx context.Context, userType, userID string) ([]float64, error)
	SaveDescriptor(ctx context.Context, userType, userID string, desc []float64, photoURL string) error
	InsertScanLog(ctx context.Context, entry ScanLog) error
}

// Uploader stores a registration image and returns its public URL.
// Optional; registration proceeds without one.
type Uploader interface {
	UploadBase64(data string) (url string, err error)
}

// Result is the outcome of one verification attempt. Confidence is
// informational and reported for both matches and non-matches.
type Result struct {
	Match      bool
	Confidence float64
	Message    string
}

// Service is the face verification oracle: it compares a submitted image
// against a user's stored descriptor by Euclidean distance.
type Service struct {
	store     DescriptorStore
	extractor Extractor
	uploader  Uploader
	tolerance float64
}

// NewService creates the oracle. tolerance is the maximum Euclidean
// distance still counted as a match; 0.6 is the usual default.
func NewService(store DescriptorStore, extractor Extractor, uploader Uploader, tolerance float64) *Service {
	if tolerance <= 0 {
		tolerance = 0.6
	}
	return &Service{store: store, extractor: extractor, uploader: uploader, tolerance: tolerance}
}

// Verify compares the image against the stored descriptor for nim.
// Extractor failures are reported as a non-match with a message, never as
// an error; the returned error means the datastore failed.
func (s *Service) Verify(ctx context.Context, nim, imageBase64 string) (Result, error) {
	stored, err := s.store.Descriptor(ctx, "mahasiswa", nim)
	if err != nil {
		if errors.Is(err, ErrNotRegistered) {
			return Result{Message: "face not registered for this account"}, nil
		}
		return Result{}, err
	}

	extracted, err := s.extractor.Extract(ctx, imageBase64)
	if err != nil {
		log.Printf("face extract failed for %s: %v", nim, err)
		return Result{Message: "could not process the face image"}, nil
	}
	if len(extracted.Descriptors) == 0 {
		return Result{Message: "no face detected in the image"}, nil
	}

	// Largest detected face; the extractor orders by bounding-box area.
	distance := euclidean(stored, extracted.Descriptors[0])
	confidence := round2(math.Max(0, 1-distance))

	if distance <= s.tolerance {
		return Result{Match: true, Confidence: confidence, Message: "face matched"}, nil
	}
	return Result{Match: false, Confidence: confidence, Message: "face did not match"}, nil
}

// Register extracts a descriptor from the image and stores it, replacing
// any previous registration for the user.
func (s *Service) Register(ctx context.Context, userID, userType, imageBase64 string) (bool, string, error) {
	if userType != "dosen" && userType != "mahasiswa" {
		return false, "invalid user type", nil
	}

	extracted, err := s.extractor.Extract(ctx, imageBase64)
	if err != nil {
		log.Printf("face extract failed for %s %s: %v", userType, userID, err)
		return false, "could not process the face image", nil
	}
	if len(extracted.Descriptors) == 0 {
		return false, "no face detected in the image", nil
	}

	var photoURL string
	if s.uploader != nil {
		url, err := s.uploader.UploadBase64(imageBase64)
		if err != nil {
			log.Printf("photo upload failed for %s %s: %v", userType, userID, err)
		} else {
			photoURL = url
		}
	}

	if err := s.store.SaveDescriptor(ctx, userType, userID, extracted.Descriptors[0], photoURL); err != nil {
		return false, "", err
	}
	return true, "face registered", nil
}

// LogScan appends a verification attempt to the audit trail.
func (s *Service) LogScan(ctx context.Context, entry ScanLog) error {
	return s.store.InsertScanLog(ctx, entry)
}

func euclidean(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
