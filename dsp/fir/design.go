package fir

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/dsp/window"
)

// band is a passband in units of the Nyquist frequency.
type band struct{ left, right float64 }

// Lowpass designs a length-tap lowpass at cutoff Hz.
func Lowpass(cutoff float64, length int, rate float64, w window.Type) ([]float64, error) {
	fc, err := normalized(cutoff, rate)
	if err != nil {
		return nil, err
	}
	return windowed([]band{{0, fc}}, length, w)
}

// Highpass designs a length-tap highpass at cutoff Hz. The length must be odd.
func Highpass(cutoff float64, length int, rate float64, w window.Type) ([]float64, error) {
	if length%2 == 0 {
		return nil, fmt.Errorf("%w: highpass with %d taps", ErrEvenLength, length)
	}
	fc, err := normalized(cutoff, rate)
	if err != nil {
		return nil, err
	}
	return windowed([]band{{fc, 1}}, length, w)
}

// Bandpass designs a length-tap bandpass between low and high Hz.
func Bandpass(low, high float64, length int, rate float64, w window.Type) ([]float64, error) {
	fl, err := normalized(low, rate)
	if err != nil {
		return nil, err
	}
	fh, err := normalized(high, rate)
	if err != nil {
		return nil, err
	}
	if fl >= fh {
		return nil, fmt.Errorf("%w: low %g >= high %g", ErrInvalidDesign, low, high)
	}
	return windowed([]band{{fl, fh}}, length, w)
}

// TransitionBandwidths returns the automatic lower and upper transition
// widths for a band edge pair. A non-positive edge disables that side.
//
// The lower width is min(max(0.25*low, 2), low) and the upper width is
// min(max(0.25*high, 2), nyquist-high).
func TransitionBandwidths(low, high, rate float64) (lowTrans, highTrans float64) {
	nyq := rate / 2
	if low > 0 {
		lowTrans = math.Min(math.Max(0.25*low, 2), low)
	}
	if high > 0 {
		highTrans = math.Min(math.Max(0.25*high, 2), nyq-high)
	}
	return lowTrans, highTrans
}

// AutoLength returns the odd tap count for a Hamming-windowed design whose
// narrowest transition band is trans Hz wide.
func AutoLength(trans, rate float64) int {
	if trans <= 0 {
		return 1
	}
	n := int(math.Ceil(3.3 / trans * rate))
	return core.OddLength(n)
}

func normalized(freq, rate float64) (float64, error) {
	if rate <= 0 || freq <= 0 || freq >= rate/2 {
		return 0, fmt.Errorf("%w: freq=%g rate=%g", ErrInvalidDesign, freq, rate)
	}
	return freq / (rate / 2), nil
}

func windowed(bands []band, length int, w window.Type) ([]float64, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidDesign, length)
	}

	alpha := 0.5 * float64(length-1)
	h := make([]float64, length)
	for i := range h {
		m := float64(i) - alpha
		for _, b := range bands {
			h[i] += b.right * core.Sinc(b.right*m)
			h[i] -= b.left * core.Sinc(b.left*m)
		}
	}
	window.Apply(w, h)

	// Unity gain at the centre of the first passband.
	first := bands[0]
	var scaleFreq float64
	switch {
	case first.left == 0:
		scaleFreq = 0
	case first.right == 1:
		scaleFreq = 1
	default:
		scaleFreq = 0.5 * (first.left + first.right)
	}
	s := 0.0
	for i, v := range h {
		s += v * math.Cos(math.Pi*(float64(i)-alpha)*scaleFreq)
	}
	if s == 0 {
		return nil, fmt.Errorf("%w: degenerate gain", ErrInvalidDesign)
	}
	for i := range h {
		h[i] /= s
	}
	return h, nil
}
