package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-eeg/dsp/window"
)

var (
	// ErrInvalidLength is returned when the FFT length is not a positive
	// power of two or exceeds the signal length.
	ErrInvalidLength = errors.New("spectrum: invalid FFT length")
	// ErrInvalidRate is returned for a non-positive sample rate.
	ErrInvalidRate = errors.New("spectrum: invalid sample rate")
)

type welchConfig struct {
	window  window.Type
	overlap int
}

// WelchOption configures [Welch].
type WelchOption func(*welchConfig)

// WithWindow selects the segment taper. The default is a periodic Hamming
// window.
func WithWindow(t window.Type) WelchOption {
	return func(c *welchConfig) { c.window = t }
}

// WithOverlap sets the number of samples shared by consecutive segments.
// The default is 0.
func WithOverlap(n int) WelchOption {
	return func(c *welchConfig) { c.overlap = n }
}

// Estimator computes Welch power spectral densities for a fixed segment
// length. It reuses its FFT plan and buffers and is not safe for concurrent
// use.
type Estimator struct {
	nfft  int
	rate  float64
	step  int
	taper []float64
	norm  float64
	plan  *algofft.Plan[complex128]
	seg   []float64
	buf   []complex128
	power []float64
}

// NewEstimator prepares a Welch estimator with nfft-sample segments. nfft
// must be a power of two.
func NewEstimator(nfft int, rate float64, opts ...WelchOption) (*Estimator, error) {
	cfg := welchConfig{window: window.TypeHamming}
	for _, o := range opts {
		o(&cfg)
	}
	if nfft < 1 || nfft&(nfft-1) != 0 {
		return nil, fmt.Errorf("%w: %d is not a power of two", ErrInvalidLength, nfft)
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	if cfg.overlap < 0 || cfg.overlap >= nfft {
		return nil, fmt.Errorf("%w: overlap %d for %d-point segments", ErrInvalidLength, cfg.overlap, nfft)
	}

	e := &Estimator{
		nfft:  nfft,
		rate:  rate,
		step:  nfft - cfg.overlap,
		taper: window.Generate(cfg.window, nfft, window.WithPeriodic()),
		seg:   make([]float64, nfft),
		buf:   make([]complex128, nfft),
		power: make([]float64, nfft),
	}
	e.norm = rate * window.SumSquares(e.taper)

	plan, err := algofft.NewPlan64(nfft)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}
	e.plan = plan
	return e, nil
}

// Freqs returns the frequencies of the one-sided bins.
func (e *Estimator) Freqs() []float64 {
	out := make([]float64, e.nfft/2+1)
	for k := range out {
		out[k] = float64(k) * e.rate / float64(e.nfft)
	}
	return out
}

// PSD returns the one-sided density of x in units^2/Hz, averaged over all
// full segments.
func (e *Estimator) PSD(x []float64) ([]float64, error) {
	if e.nfft > len(x) {
		return nil, fmt.Errorf("%w: nfft %d exceeds %d samples", ErrInvalidLength, e.nfft, len(x))
	}

	bins := e.nfft/2 + 1
	acc := make([]float64, bins)
	segments := 0
	for start := 0; start+e.nfft <= len(x); start += e.step {
		vecmath.MulBlock(e.seg, x[start:start+e.nfft], e.taper)
		if err := e.transform(); err != nil {
			return nil, err
		}
		PowerInto(e.power, e.buf)
		vecmath.AddBlockInPlace(acc, e.power[:bins])
		segments++
	}

	scale := 1 / (e.norm * float64(segments))
	vecmath.ScaleBlock(acc, acc, scale)
	// Fold negative frequencies; DC and an even Nyquist bin occur once.
	last := bins
	if e.nfft%2 == 0 {
		last = bins - 1
	}
	for k := 1; k < last; k++ {
		acc[k] *= 2
	}
	return acc, nil
}

func (e *Estimator) transform() error {
	for i, v := range e.seg {
		e.buf[i] = complex(v, 0)
	}
	return e.plan.Forward(e.buf, e.buf)
}

// Welch returns the frequencies and one-sided power spectral density of x
// using nfft-sample segments.
func Welch(x []float64, rate float64, nfft int, opts ...WelchOption) (freqs, psd []float64, err error) {
	e, err := NewEstimator(nfft, rate, opts...)
	if err != nil {
		return nil, nil, err
	}
	psd, err = e.PSD(x)
	if err != nil {
		return nil, nil, err
	}
	return e.Freqs(), psd, nil
}
