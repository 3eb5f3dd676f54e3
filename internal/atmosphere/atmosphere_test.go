package atmosphere

import (
	"math"
	"testing"
)

func TestSeaLevel(t *testing.T) {
	s := At(0)
	if math.Abs(s.Density-SeaLevelDensity) > 1e-3 {
		t.Errorf("sea level density = %v", s.Density)
	}
	if math.Abs(s.SpeedOfSound-340.29) > 0.1 {
		t.Errorf("sea level speed of sound = %v", s.SpeedOfSound)
	}
	if s.Gravity != StandardGravity {
		t.Errorf("sea level gravity = %v", s.Gravity)
	}
}

func TestReferenceAltitudes(t *testing.T) {
	tests := []struct {
		alt     float64
		density float64
	}{
		{1500, 1.0581},
		{5000, 0.7364},
		{11000, 0.3639},
		{15000, 0.1948},
	}
	for _, tt := range tests {
		if got := At(tt.alt).Density; math.Abs(got-tt.density) > 2e-3 {
			t.Errorf("density at %v m = %v, want %v", tt.alt, got, tt.density)
		}
	}
}

func TestMonotonicDecrease(t *testing.T) {
	prev := At(-500)
	for h := 0.0; h <= 20000; h += 250 {
		cur := At(h)
		if cur.Density >= prev.Density || cur.Gravity >= prev.Gravity {
			t.Fatalf("density or gravity not decreasing at %v m", h)
		}
		prev = cur
	}
}

func TestClampedOutsideModel(t *testing.T) {
	if At(50000).Density != At(20000).Density {
		t.Error("density above the ceiling should be clamped")
	}
	if math.IsNaN(At(-1e6).Gravity) {
		t.Error("gravity NaN far below the floor")
	}
}
