package iir

import (
	"errors"
	"math"
	"testing"
)

func TestButterworthSectionCount(t *testing.T) {
	for order := 1; order <= 8; order++ {
		lp, err := ButterworthLowpass(40, order, 500)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}
		if want := (order + 1) / 2; len(lp) != want {
			t.Fatalf("order %d: sections=%d, want %d", order, len(lp), want)
		}
		if order%2 != 0 && !lp[len(lp)-1].FirstOrder() {
			t.Fatalf("order %d: last section should be first order", order)
		}
		if NewCascade(lp).Order() != order {
			t.Fatalf("order %d: cascade order=%d", order, NewCascade(lp).Order())
		}
	}
}

func TestButterworthMinus3dBAtCutoff(t *testing.T) {
	for _, order := range []int{1, 2, 3, 4, 6} {
		lp, _ := ButterworthLowpass(40, order, 500)
		hp, _ := ButterworthHighpass(1, order, 500)

		if db := NewCascade(lp).MagnitudeDB(40, 500); math.Abs(db+3.01) > 0.05 {
			t.Fatalf("LP order %d: %v dB at cutoff", order, db)
		}
		if db := NewCascade(hp).MagnitudeDB(1, 500); math.Abs(db+3.01) > 0.05 {
			t.Fatalf("HP order %d: %v dB at cutoff", order, db)
		}
	}
}

func TestButterworthDCGain(t *testing.T) {
	lp, _ := ButterworthLowpass(10, 4, 250)
	hp, _ := ButterworthHighpass(10, 4, 250)

	g := 1.0
	for _, s := range lp {
		g *= s.DCGain()
	}
	if math.Abs(g-1) > 1e-9 {
		t.Fatalf("lowpass DC gain = %v, want 1", g)
	}

	g = 1.0
	for _, s := range hp {
		g *= s.DCGain()
	}
	if math.Abs(g) > 1e-9 {
		t.Fatalf("highpass DC gain = %v, want 0", g)
	}
}

func TestDesignRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		freq  float64
		order int
		rate  float64
	}{
		{name: "zero order", freq: 10, order: 0, rate: 100},
		{name: "zero freq", freq: 0, order: 2, rate: 100},
		{name: "at nyquist", freq: 50, order: 2, rate: 100},
		{name: "negative rate", freq: 10, order: 2, rate: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ButterworthLowpass(tt.freq, tt.order, tt.rate); !errors.Is(err, ErrInvalidDesign) {
				t.Fatalf("err = %v, want ErrInvalidDesign", err)
			}
		})
	}

	if _, err := Notch(50, 0, 500); !errors.Is(err, ErrInvalidDesign) {
		t.Fatalf("notch q=0: err = %v", err)
	}
}

func TestNotchAttenuatesCentre(t *testing.T) {
	c, err := Notch(50, 30, 500)
	if err != nil {
		t.Fatal(err)
	}

	cas := NewCascade([]Coefficients{c})
	if db := cas.MagnitudeDB(50, 500); db > -60 {
		t.Fatalf("notch centre = %v dB, want < -60", db)
	}
	if db := cas.MagnitudeDB(10, 500); math.Abs(db) > 0.1 {
		t.Fatalf("notch passband = %v dB, want ~0", db)
	}
}
