package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-eeg/dsp/window"
	"github.com/cwbudde/algo-eeg/internal/testutil"
)

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func TestWelchSinePeak(t *testing.T) {
	tests := []struct {
		name string
		nfft int
		rate float64
		freq float64
		bin  int
	}{
		{"power of two", 256, 256, 32, 32},
		{"fractional bins", 128, 100, 25, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := testutil.DeterministicSine(tt.freq, tt.rate, 1, 10*tt.nfft)
			freqs, psd, err := Welch(x, tt.rate, tt.nfft)
			if err != nil {
				t.Fatal(err)
			}
			if len(freqs) != tt.nfft/2+1 || len(psd) != len(freqs) {
				t.Fatalf("lengths %d %d", len(freqs), len(psd))
			}
			if got := argmax(psd); got != tt.bin {
				t.Fatalf("peak bin %d, want %d", got, tt.bin)
			}
			if freqs[tt.bin] != tt.freq {
				t.Fatalf("freq %v, want %v", freqs[tt.bin], tt.freq)
			}
		})
	}
}

func TestWelchNoiseVariance(t *testing.T) {
	const rate = 200.0
	x := testutil.DeterministicNoise(11, 1, 200000)
	freqs, psd, err := Welch(x, rate, 512, WithWindow(window.TypeHann), WithOverlap(256))
	if err != nil {
		t.Fatal(err)
	}
	df := freqs[1] - freqs[0]
	total := 0.0
	for _, p := range psd {
		total += p * df
	}
	if math.Abs(total-1.0/3) > 0.02 {
		t.Fatalf("integrated power %v, want ~1/3", total)
	}
}

func TestWelchErrors(t *testing.T) {
	x := make([]float64, 100)
	if _, _, err := Welch(x, 100, 128); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("long nfft err = %v", err)
	}
	if _, _, err := Welch(x, 100, 100); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("non power of two err = %v", err)
	}
	if _, _, err := Welch(x, 0, 64); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("rate err = %v", err)
	}
	if _, _, err := Welch(x, 100, 64, WithOverlap(64)); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("overlap err = %v", err)
	}
}

func TestLineAmplitude(t *testing.T) {
	x := testutil.Add(
		testutil.DeterministicSine(50, 1000, 0.3, 1000),
		testutil.DeterministicSine(10, 1000, 1, 1000),
	)
	a, err := LineAmplitude(x, 50, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a-0.3) > 1e-6 {
		t.Fatalf("amplitude %v, want 0.3", a)
	}
	if _, err := LineAmplitude(x, 600, 1000); err == nil {
		t.Fatal("expected error above Nyquist")
	}
}

func TestPowerAndMagnitude(t *testing.T) {
	in := []complex128{3 + 4i, 0, -1}
	testutil.RequireSliceNearlyEqual(t, Power(in), []float64{25, 0, 1}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, Magnitude(in), []float64{5, 0, 1}, 1e-12)
	if Power(nil) != nil {
		t.Fatal("expected nil")
	}
}
