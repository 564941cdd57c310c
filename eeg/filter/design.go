package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-eeg/dsp/fir"
	"github.com/cwbudde/algo-eeg/dsp/iir"
	"github.com/cwbudde/algo-eeg/dsp/window"
	"github.com/cwbudde/algo-eeg/eeg"
)

// Method selects the filter family.
type Method int

const (
	MethodFIR Method = iota
	MethodIIR
)

func (m Method) String() string {
	if m == MethodIIR {
		return "iir"
	}
	return "fir"
}

// ParseMethod resolves "fir" or "iir".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "fir", "":
		return MethodFIR, nil
	case "iir":
		return MethodIIR, nil
	}
	return MethodFIR, fmt.Errorf("%w: filter method %q", eeg.ErrInvalidParameter, s)
}

// Band holds passband edges in Hz. A zero edge is unset: Low alone gives a
// highpass, High alone a lowpass.
type Band struct {
	Low  float64
	High float64
}

func (b Band) String() string {
	switch {
	case b.Low > 0 && b.High > 0:
		return fmt.Sprintf("bandpass %g-%g Hz", b.Low, b.High)
	case b.Low > 0:
		return fmt.Sprintf("highpass %g Hz", b.Low)
	default:
		return fmt.Sprintf("lowpass %g Hz", b.High)
	}
}

// Validate checks the band against the Nyquist frequency of rate.
func (b Band) Validate(rate float64) error {
	nyq := rate / 2
	switch {
	case b.Low == 0 && b.High == 0:
		return fmt.Errorf("%w: neither band edge set", eeg.ErrInvalidParameter)
	case b.Low < 0 || b.High < 0:
		return fmt.Errorf("%w: negative band edge in %+v", eeg.ErrInvalidParameter, b)
	case b.Low >= nyq || b.High >= nyq:
		return fmt.Errorf("%w: band edge at or above Nyquist (%g Hz)", eeg.ErrInvalidParameter, nyq)
	case b.Low > 0 && b.High > 0 && b.Low >= b.High:
		return fmt.Errorf("%w: low %g Hz >= high %g Hz", eeg.ErrInvalidParameter, b.Low, b.High)
	}
	return nil
}

// Design is a filter ready to run on single channels.
type Design struct {
	Band   Band
	Method Method
	Rate   float64

	// Taps and the transition widths are set for FIR designs.
	Taps           []float64
	LowTransition  float64
	HighTransition float64

	// Order is the Butterworth order per edge of IIR designs.
	Order int

	cascade *iir.Cascade
	oa      *fir.OverlapAdd
}

// NewDesign builds the filter for b at rate.
func NewDesign(b Band, rate float64, method Method, iirOrder int) (*Design, error) {
	if err := b.Validate(rate); err != nil {
		return nil, err
	}
	d := &Design{Band: b, Method: method, Rate: rate}

	switch method {
	case MethodFIR:
		if err := d.designFIR(); err != nil {
			return nil, err
		}
	case MethodIIR:
		if iirOrder < 1 {
			return nil, fmt.Errorf("%w: IIR order %d", eeg.ErrInvalidParameter, iirOrder)
		}
		d.Order = iirOrder
		var sections [][]iir.Coefficients
		if b.Low > 0 {
			hp, err := iir.ButterworthHighpass(b.Low, iirOrder, rate)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", eeg.ErrInvalidParameter, err)
			}
			sections = append(sections, hp)
		}
		if b.High > 0 {
			lp, err := iir.ButterworthLowpass(b.High, iirOrder, rate)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", eeg.ErrInvalidParameter, err)
			}
			sections = append(sections, lp)
		}
		d.cascade = iir.NewCascade(sections...)
	default:
		return nil, fmt.Errorf("%w: filter method %d", eeg.ErrInvalidParameter, method)
	}
	return d, nil
}

func (d *Design) designFIR() error {
	b := d.Band
	lt, ht := fir.TransitionBandwidths(b.Low, b.High, d.Rate)
	d.LowTransition, d.HighTransition = lt, ht

	var (
		taps []float64
		err  error
	)
	switch {
	case b.Low > 0 && b.High > 0:
		n := fir.AutoLength(math.Min(lt, ht), d.Rate)
		taps, err = fir.Bandpass(b.Low-lt/2, b.High+ht/2, n, d.Rate, window.TypeHamming)
	case b.Low > 0:
		taps, err = fir.Highpass(b.Low-lt/2, fir.AutoLength(lt, d.Rate), d.Rate, window.TypeHamming)
	default:
		taps, err = fir.Lowpass(b.High+ht/2, fir.AutoLength(ht, d.Rate), d.Rate, window.TypeHamming)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", eeg.ErrInvalidParameter, err)
	}
	d.Taps = taps

	d.oa, err = fir.NewOverlapAdd(taps, 0)
	return err
}

// Run filters one channel and returns a new slice.
func (d *Design) Run(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, nil
	}
	if d.Method == MethodIIR {
		return d.cascade.FiltFilt(x)
	}
	return fir.ZeroPhase(d.oa, x)
}

// MagnitudeDB returns the effective zero-phase gain at freq.
func (d *Design) MagnitudeDB(freq float64) float64 {
	if d.Method == MethodIIR {
		return 2 * d.cascade.MagnitudeDB(freq, d.Rate)
	}
	var re, im float64
	w := 2 * math.Pi * freq / d.Rate
	for k, h := range d.Taps {
		re += h * math.Cos(w*float64(k))
		im -= h * math.Sin(w*float64(k))
	}
	return 10 * math.Log10(re*re+im*im)
}

// Length returns the FIR tap count or the IIR section count.
func (d *Design) Length() int {
	if d.Method == MethodIIR {
		return d.cascade.NumSections()
	}
	return len(d.Taps)
}
