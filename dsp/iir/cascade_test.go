package iir

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-eeg/internal/testutil"
)

func TestFiltFiltPreservesDCThroughLowpass(t *testing.T) {
	lp, _ := ButterworthLowpass(30, 4, 250)
	c := NewCascade(lp)

	x := testutil.DC(3.5, 1000)
	y, err := c.FiltFilt(x)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, y, x, 1e-9)
}

func TestFiltFiltRemovesDCThroughHighpass(t *testing.T) {
	hp, _ := ButterworthHighpass(1, 4, 250)
	c := NewCascade(hp)

	y, err := c.FiltFilt(testutil.DC(10, 2000))
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range y {
		if math.Abs(v) > 1e-6 {
			t.Fatalf("y[%d] = %v, want 0", i, v)
		}
	}
}

func TestFiltFiltZeroPhaseInPassband(t *testing.T) {
	const rate = 250.0
	lp, _ := ButterworthLowpass(40, 4, rate)
	c := NewCascade(lp)

	x := testutil.DeterministicSine(5, rate, 1, 2500)
	y, err := c.FiltFilt(x)
	if err != nil {
		t.Fatal(err)
	}

	// Ignore the outer second where edge handling dominates.
	maxErr, _ := testutil.MaxAbsDiff(y[250:2250], x[250:2250])
	if maxErr > 1e-3 {
		t.Fatalf("max deviation in passband = %v", maxErr)
	}
}

func TestFiltFiltAttenuatesStopband(t *testing.T) {
	const rate = 250.0
	lp, _ := ButterworthLowpass(10, 4, rate)
	c := NewCascade(lp)

	y, err := c.FiltFilt(testutil.DeterministicSine(60, rate, 1, 2500))
	if err != nil {
		t.Fatal(err)
	}

	if peak := testutil.PeakAbs(y[250:2250]); peak > 1e-3 {
		t.Fatalf("stopband peak = %v", peak)
	}
}

func TestFiltFiltDoesNotTouchInput(t *testing.T) {
	lp, _ := ButterworthLowpass(10, 2, 100)
	c := NewCascade(lp)

	x := testutil.DeterministicNoise(7, 1, 300)
	orig := append([]float64(nil), x...)
	if _, err := c.FiltFilt(x); err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, x, orig, 0)
}

func TestFiltFiltShortAndEmpty(t *testing.T) {
	lp, _ := ButterworthLowpass(10, 4, 100)
	c := NewCascade(lp)

	y, err := c.FiltFilt([]float64{1, 2, 3})
	if err != nil || len(y) != 3 {
		t.Fatalf("short input: len=%d err=%v", len(y), err)
	}
	testutil.RequireFinite(t, y)

	y, err = c.FiltFilt(nil)
	if err != nil || y != nil {
		t.Fatalf("empty input: %v %v", y, err)
	}

	if _, err := NewCascade().FiltFilt([]float64{1}); !errors.Is(err, ErrEmptyCascade) {
		t.Fatalf("err = %v, want ErrEmptyCascade", err)
	}
}

func TestSectionProcessBlockMatchesSample(t *testing.T) {
	lp, _ := ButterworthLowpass(20, 2, 200)
	a := Section{Coefficients: lp[0]}
	b := Section{Coefficients: lp[0]}

	x := testutil.DeterministicNoise(3, 1, 101)
	block := append([]float64(nil), x...)
	b.ProcessBlock(block)

	for i, v := range x {
		if got := a.ProcessSample(v); math.Abs(got-block[i]) > 1e-12 {
			t.Fatalf("sample %d: %v vs %v", i, got, block[i])
		}
	}
}
