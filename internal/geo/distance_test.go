package geo

import (
	"math"
	"testing"
)

func TestDistanceIdentity(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{-6.200, 106.816},
		{51.5074, -0.1278},
		{-90, 180},
	}
	for _, p := range points {
		if d := Distance(p[0], p[1], p[0], p[1]); d != 0 {
			t.Fatalf("Distance(p, p) = %v for %v, want 0", d, p)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	d1 := Distance(-6.200, 106.816, -6.2001, 106.8161)
	d2 := Distance(-6.2001, 106.8161, -6.200, 106.816)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceOneDegreeAtEquator(t *testing.T) {
	// One degree of longitude at the equator is about 111195 m.
	got := Distance(0, 0, 0, 1)
	want := 111195.0
	if math.Abs(got-want)/want > 0.01 {
		t.Fatalf("Distance((0,0),(0,1)) = %v, want %v within 1%%", got, want)
	}
}

func TestDistanceShortHop(t *testing.T) {
	// ~15 m hop used by the end-to-end geofence scenario.
	got := Distance(-6.200, 106.816, -6.2001, 106.8161)
	if got <= 0 || got > 50 {
		t.Fatalf("expected a short hop well inside a 50 m radius, got %v m", got)
	}
}
