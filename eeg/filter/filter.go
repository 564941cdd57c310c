package filter

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-eeg/dsp/iir"
	"github.com/cwbudde/algo-eeg/eeg"
)

type config struct {
	method   Method
	iirOrder int
	kinds    []eeg.Kind
}

// Option configures [Apply] and [Notch].
type Option func(*config)

// WithMethod selects FIR (default) or IIR filtering.
func WithMethod(m Method) Option {
	return func(c *config) { c.method = m }
}

// WithIIROrder sets the Butterworth order per band edge. The default is 4.
func WithIIROrder(order int) Option {
	return func(c *config) { c.iirOrder = order }
}

// WithKinds selects the channel kinds to filter. The default is EEG and
// EOG; bad channels are filtered as well.
func WithKinds(kinds ...eeg.Kind) Option {
	return func(c *config) { c.kinds = kinds }
}

func newConfig(opts []Option) config {
	c := config{method: MethodFIR, iirOrder: 4, kinds: []eeg.Kind{eeg.KindEEG, eeg.KindEOG}}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Apply returns a band-limited copy of rec. The source is not modified.
func Apply(rec *eeg.Recording, b Band, opts ...Option) (*eeg.Recording, error) {
	cfg := newConfig(opts)
	d, err := NewDesign(b, rec.Rate(), cfg.method, cfg.iirOrder)
	if err != nil {
		return nil, err
	}

	out, err := runRows(rec, cfg.kinds, d.Run)
	if err != nil {
		return nil, err
	}

	hp, lp := rec.FilterBand()
	if b.Low > 0 && b.Low > hp {
		hp = b.Low
	}
	if b.High > 0 && (lp == 0 || b.High < lp) {
		lp = b.High
	}
	return out.WithFilterBand(hp, lp), nil
}

// NotchWidth returns the default stop bandwidth for a notch at freq.
func NotchWidth(freq float64) float64 { return freq / 200 }

// Notch returns a copy of rec with narrow stop bands at every freq, run
// forward and backward. The kind selection follows [WithKinds].
func Notch(rec *eeg.Recording, freqs []float64, opts ...Option) (*eeg.Recording, error) {
	if len(freqs) == 0 {
		return nil, fmt.Errorf("%w: no notch frequencies", eeg.ErrInvalidParameter)
	}
	cfg := newConfig(opts)

	sections := make([]iir.Coefficients, 0, len(freqs))
	for _, f := range freqs {
		if f <= 0 || f >= rec.Rate()/2 {
			return nil, fmt.Errorf("%w: notch at %g Hz with rate %g", eeg.ErrInvalidParameter, f, rec.Rate())
		}
		c, err := iir.Notch(f, f/NotchWidth(f), rec.Rate())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", eeg.ErrInvalidParameter, err)
		}
		sections = append(sections, c)
	}
	cascade := iir.NewCascade(sections)
	return runRows(rec, cfg.kinds, cascade.FiltFilt)
}

func runRows(rec *eeg.Recording, kinds []eeg.Kind, run func([]float64) ([]float64, error)) (*eeg.Recording, error) {
	data := rec.Data()
	next := make([][]float64, len(data))
	for i, row := range data {
		if !slices.Contains(kinds, rec.Kind(i)) {
			next[i] = row
			continue
		}
		y, err := run(row)
		if err != nil {
			return nil, fmt.Errorf("filter channel %s: %w", rec.Channel(i), err)
		}
		next[i] = y
	}
	return rec.WithData(next)
}
