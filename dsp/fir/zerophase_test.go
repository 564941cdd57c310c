package fir

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-eeg/dsp/window"
	"github.com/cwbudde/algo-eeg/internal/testutil"
)

func directConv(x, h []float64) []float64 {
	out := make([]float64, len(x)+len(h)-1)
	for i, xv := range x {
		for j, hv := range h {
			out[i+j] += xv * hv
		}
	}
	return out
}

func TestOverlapAddMatchesDirect(t *testing.T) {
	x := testutil.DeterministicNoise(7, 1, 1000)
	h := testutil.DeterministicNoise(8, 1, 37)
	oa, err := NewOverlapAdd(h, 64)
	if err != nil {
		t.Fatal(err)
	}
	got, err := oa.Process(x)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, got, directConv(x, h), 1e-9)
}

func TestOverlapAddErrors(t *testing.T) {
	if _, err := NewOverlapAdd(nil, 0); !errors.Is(err, ErrEmptyKernel) {
		t.Fatalf("err = %v", err)
	}
	oa, err := NewOverlapAdd([]float64{1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := oa.Process(nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestZeroPhaseDelayedImpulseIsIdentity(t *testing.T) {
	oa, err := NewOverlapAdd([]float64{0, 0, 1, 0, 0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	x := testutil.DeterministicNoise(3, 1, 50)
	y, err := ZeroPhase(oa, x)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, y, x, 1e-12)

	even, _ := NewOverlapAdd([]float64{0.5, 0.5}, 0)
	if _, err := ZeroPhase(even, x); !errors.Is(err, ErrEvenLength) {
		t.Fatalf("err = %v", err)
	}
}

func TestZeroPhaseShortInput(t *testing.T) {
	oa, _ := NewOverlapAdd([]float64{0.25, 0.5, 0.25}, 0)
	y, err := ZeroPhase(oa, []float64{2})
	if err != nil {
		t.Fatal(err)
	}
	if len(y) != 1 || y[0] != 1 {
		t.Fatalf("y = %v, want [1]", y)
	}
}

func TestBandpassPassesAndRejects(t *testing.T) {
	const rate = 160.0
	lt, ht := TransitionBandwidths(1, 40, rate)
	n := AutoLength(min(lt, ht), rate)
	h, err := Bandpass(1-lt/2, 40+ht/2, n, rate, window.TypeHamming)
	if err != nil {
		t.Fatal(err)
	}
	oa, err := NewOverlapAdd(h, 0)
	if err != nil {
		t.Fatal(err)
	}

	length := 20 * int(rate)
	in := testutil.DeterministicSine(10, rate, 1, length)
	out, err := ZeroPhase(oa, in)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireFinite(t, out)
	mid := length / 2
	d, _ := testutil.MaxAbsDiff(out[mid-200:mid+200], in[mid-200:mid+200])
	if d > 1e-2 {
		t.Fatalf("passband error %v", d)
	}

	stop := testutil.DeterministicSine(70, rate, 1, length)
	out, err = ZeroPhase(oa, stop)
	if err != nil {
		t.Fatal(err)
	}
	if p := testutil.PeakAbs(out[mid-200 : mid+200]); p > 1e-2 {
		t.Fatalf("stopband peak %v", p)
	}
}
