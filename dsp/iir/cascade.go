package iir

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrEmptyCascade is returned when filtering with no sections.
var ErrEmptyCascade = errors.New("iir: cascade has no sections")

// Cascade is an ordered series of sections.
type Cascade struct {
	sections []Section
}

// NewCascade builds a cascade from one or more coefficient sets.
func NewCascade(coeffs ...[]Coefficients) *Cascade {
	c := &Cascade{}
	for _, set := range coeffs {
		for _, k := range set {
			c.sections = append(c.sections, Section{Coefficients: k})
		}
	}

	return c
}

// NumSections returns the number of sections.
func (c *Cascade) NumSections() int {
	return len(c.sections)
}

// Order returns the filter order, counting first-order sections once.
func (c *Cascade) Order() int {
	n := 0
	for i := range c.sections {
		if c.sections[i].FirstOrder() {
			n++
		} else {
			n += 2
		}
	}

	return n
}

// Reset clears the state of every section.
func (c *Cascade) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// ProcessBlock filters buf in-place through every section.
func (c *Cascade) ProcessBlock(buf []float64) {
	for i := range c.sections {
		c.sections[i].ProcessBlock(buf)
	}
}

// Response returns the complex frequency response at freqHz.
func (c *Cascade) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	z1 := cmplx.Exp(complex(0, -w))
	z2 := cmplx.Exp(complex(0, -2*w))

	h := complex(1, 0)
	for i := range c.sections {
		k := c.sections[i].Coefficients
		num := complex(k.B0, 0) + complex(k.B1, 0)*z1 + complex(k.B2, 0)*z2
		den := complex(1, 0) + complex(k.A1, 0)*z1 + complex(k.A2, 0)*z2
		h *= num / den
	}

	return h
}

// MagnitudeDB returns the single-pass magnitude response in dB. The
// forward-backward response of FiltFilt is twice this value.
func (c *Cascade) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(c.Response(freqHz, sampleRate)))
}

// PadLen returns the edge extension used by FiltFilt for a signal of n
// samples.
func (c *Cascade) PadLen(n int) int {
	taps := 2*len(c.sections) + 1
	for i := range c.sections {
		if c.sections[i].FirstOrder() {
			taps--
		}
	}

	pad := 3 * taps
	if pad > n-1 {
		pad = n - 1
	}
	if pad < 0 {
		pad = 0
	}

	return pad
}

// FiltFilt returns x filtered forward then backward. The input is extended
// at both ends by odd reflection and each pass starts from the steady state
// of its first sample. The cascade state is reset afterwards.
func (c *Cascade) FiltFilt(x []float64) ([]float64, error) {
	if len(c.sections) == 0 {
		return nil, ErrEmptyCascade
	}
	if len(x) == 0 {
		return nil, nil
	}

	pad := c.PadLen(len(x))
	ext := oddExtend(x, pad)

	c.settle(ext[0])
	c.ProcessBlock(ext)

	reverse(ext)
	c.settle(ext[0])
	c.ProcessBlock(ext)
	reverse(ext)
	c.Reset()

	out := make([]float64, len(x))
	copy(out, ext[pad:pad+len(x)])

	return out, nil
}

// settle initialises every section for a constant input x, scaling each
// section by the DC gain of the sections before it.
func (c *Cascade) settle(x float64) {
	in := x
	for i := range c.sections {
		c.sections[i].settle(in)
		in *= c.sections[i].DCGain()
	}
}

func oddExtend(x []float64, pad int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		ext[i] = 2*x[0] - x[pad-i]
		ext[pad+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[pad:], x)

	return ext
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
