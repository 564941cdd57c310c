package iir

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDesign is wrapped by designers for out-of-range parameters.
var ErrInvalidDesign = errors.New("iir: invalid design parameters")

// ButterworthLowpass designs an order-n lowpass Butterworth cascade with its
// -3 dB point at freq. Odd orders end with a first-order section.
func ButterworthLowpass(freq float64, order int, sampleRate float64) ([]Coefficients, error) {
	return butterworth(freq, order, sampleRate, false)
}

// ButterworthHighpass designs an order-n highpass Butterworth cascade.
func ButterworthHighpass(freq float64, order int, sampleRate float64) ([]Coefficients, error) {
	return butterworth(freq, order, sampleRate, true)
}

func butterworth(freq float64, order int, sampleRate float64, high bool) ([]Coefficients, error) {
	if order <= 0 {
		return nil, fmt.Errorf("%w: order must be > 0: %d", ErrInvalidDesign, order)
	}
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return nil, err
	}

	sections := make([]Coefficients, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		q := butterworthQ(order, i)
		if high {
			sections = append(sections, highpassRBJ(w0, q))
		} else {
			sections = append(sections, lowpassRBJ(w0, q))
		}
	}

	if order%2 != 0 {
		k := math.Tan(math.Pi * freq / sampleRate)
		norm := 1 / (1 + k)
		first := Coefficients{B0: k * norm, B1: k * norm, A1: (k - 1) * norm}
		if high {
			first = Coefficients{B0: norm, B1: -norm, A1: (k - 1) * norm}
		}
		sections = append(sections, first)
	}

	return sections, nil
}

// Notch designs a single RBJ notch section centred at freq with quality q.
func Notch(freq, q, sampleRate float64) (Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return Coefficients{}, err
	}
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return Coefficients{}, fmt.Errorf("%w: q must be > 0: %v", ErrInvalidDesign, q)
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalize(1, -2*cw, 1, 1+alpha, -2*cw, 1-alpha), nil
}

// butterworthQ returns the quality factor of biquad index of an order-n
// Butterworth prototype.
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))

	s := math.Sin(theta)
	if s == 0 {
		return 1 / math.Sqrt2
	}

	return 1 / (2 * s)
}

func lowpassRBJ(w0, q float64) Coefficients {
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalize((1-cw)/2, 1-cw, (1-cw)/2, 1+alpha, -2*cw, 1-alpha)
}

func highpassRBJ(w0, q float64) Coefficients {
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalize((1+cw)/2, -(1 + cw), (1+cw)/2, 1+alpha, -2*cw, 1-alpha)
}

func normalizedW0(freq, sampleRate float64) (float64, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, fmt.Errorf("%w: sample rate must be > 0: %v", ErrInvalidDesign, sampleRate)
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) {
		return 0, fmt.Errorf("%w: frequency %v outside (0, %v)", ErrInvalidDesign, freq, nyquist)
	}

	return 2 * math.Pi * freq / sampleRate, nil
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
