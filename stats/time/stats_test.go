package time

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-eeg/internal/testutil"
)

func TestCalculate(t *testing.T) {
	s := Calculate([]float64{1, 2, 3, 4, -2})
	if s.Length != 5 || math.Abs(s.Mean-1.6) > 1e-12 || s.Min != -2 || s.Max != 4 || s.PeakToPeak != 6 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if math.Abs(s.Std-math.Sqrt(4.24)) > 1e-12 {
		t.Fatalf("std = %v", s.Std)
	}
	if math.Abs(s.RMS-math.Sqrt(34.0/5)) > 1e-12 {
		t.Fatalf("rms = %v", s.RMS)
	}
	if (Calculate(nil) != Stats{}) {
		t.Fatal("empty input should give zero stats")
	}
}

func TestMomentsOfSine(t *testing.T) {
	x := testutil.DeterministicSine(5, 1000, 1, 1000)
	mean, variance, skew, kurt := Moments(x)
	if math.Abs(mean) > 1e-12 || math.Abs(variance-0.5) > 1e-12 {
		t.Fatalf("mean %v variance %v", mean, variance)
	}
	if math.Abs(skew) > 1e-9 {
		t.Fatalf("skewness %v", skew)
	}
	// A sine has excess kurtosis -1.5.
	if math.Abs(kurt+1.5) > 1e-9 {
		t.Fatalf("kurtosis %v", kurt)
	}
}

func TestPearson(t *testing.T) {
	a := testutil.DeterministicNoise(1, 1, 500)
	neg := make([]float64, len(a))
	for i, v := range a {
		neg[i] = -3*v + 2
	}
	tests := []struct {
		name string
		x, y []float64
		want float64
	}{
		{"self", a, a, 1},
		{"negated affine", a, neg, -1},
		{"constant", a, testutil.DC(1, len(a)), 0},
		{"length mismatch", a, a[:10], 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pearson(tt.x, tt.y); math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZScores(t *testing.T) {
	z := ZScores([]float64{1, 2, 3})
	s := math.Sqrt(2.0 / 3)
	testutil.RequireSliceNearlyEqual(t, z, []float64{-1 / s, 0, 1 / s}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, ZScores([]float64{4, 4}), []float64{0, 0}, 0)
}
