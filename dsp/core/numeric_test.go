package core

import (
	"math"
	"testing"
)

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Fatal("expected values to be nearly equal")
	}
	if NearlyEqual(1.0, 1.1, 1e-3) {
		t.Fatal("expected values to differ")
	}
	if !NearlyEqual(1e6, 1e6+1e-7, 1e-12) {
		t.Fatal("expected relative comparison for large magnitudes")
	}
}

func TestLinearPowerToDB(t *testing.T) {
	if got := LinearPowerToDB(100); !NearlyEqual(got, 20, 1e-12) {
		t.Fatalf("LinearPowerToDB(100) = %v, want 20", got)
	}
	if !math.IsInf(LinearPowerToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}
	if !math.IsNaN(LinearPowerToDB(-1)) {
		t.Fatal("expected NaN for negative power")
	}
}

func TestNextPowerOf2(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: -3, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 3, want: 4},
		{in: 1024, want: 1024},
		{in: 1025, want: 2048},
	}

	for _, tt := range tests {
		if got := NextPowerOf2(tt.in); got != tt.want {
			t.Fatalf("NextPowerOf2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOddLength(t *testing.T) {
	if OddLength(4) != 5 || OddLength(5) != 5 {
		t.Fatalf("OddLength: got %d, %d", OddLength(4), OddLength(5))
	}
}

func TestMeanAndSinc(t *testing.T) {
	if Mean(nil) != 0 {
		t.Fatal("Mean(nil) should be 0")
	}
	if got := Mean([]float64{1, 2, 3, 6}); got != 3 {
		t.Fatalf("Mean = %v, want 3", got)
	}
	if Sinc(0) != 1 {
		t.Fatal("Sinc(0) should be 1")
	}
	if got := Sinc(1); math.Abs(got) > 1e-15 {
		t.Fatalf("Sinc(1) = %v, want 0", got)
	}
}
