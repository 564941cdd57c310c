package resample

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/dsp/window"
)

var (
	// ErrInvalidRatio is returned when up or down is not positive.
	ErrInvalidRatio = errors.New("resample: up and down must be > 0")
	// ErrInvalidRate is returned for rates that are not positive or whose
	// quotient has no small rational form.
	ErrInvalidRate = errors.New("resample: invalid rate")
)

// Quality selects a predefined anti-aliasing profile.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
)

// Profile describes the prototype low-pass filter.
type Profile struct {
	// ZeroCrossings is the number of sinc zero crossings kept on each side
	// of the centre tap, measured at the slower of the two rates.
	ZeroCrossings int
	// CutoffScale places the cutoff as a fraction of the lower Nyquist rate.
	CutoffScale float64
	KaiserBeta  float64
}

// QualityProfile returns the profile used by quality mode q.
func QualityProfile(q Quality) Profile {
	switch q {
	case QualityFast:
		return Profile{ZeroCrossings: 10, CutoffScale: 0.90, KaiserBeta: 5}
	case QualityBest:
		return Profile{ZeroCrossings: 32, CutoffScale: 0.97, KaiserBeta: 9}
	default:
		return Profile{ZeroCrossings: 16, CutoffScale: 0.94, KaiserBeta: 7}
	}
}

type config struct {
	profile Profile
	maxDen  int
}

// Option configures a conversion.
type Option func(*config)

// WithQuality selects a predefined profile. Later options override its
// individual fields.
func WithQuality(q Quality) Option {
	return func(c *config) {
		c.profile = QualityProfile(q)
	}
}

// WithZeroCrossings overrides the filter half-length.
func WithZeroCrossings(n int) Option {
	return func(c *config) {
		c.profile.ZeroCrossings = n
	}
}

// WithCutoffScale overrides the cutoff fraction in (0,1].
func WithCutoffScale(v float64) Option {
	return func(c *config) {
		c.profile.CutoffScale = v
	}
}

// WithKaiserBeta overrides the Kaiser window shape.
func WithKaiserBeta(beta float64) Option {
	return func(c *config) {
		c.profile.KaiserBeta = beta
	}
}

// WithMaxDenominator bounds the ratio search used by [ForRates].
func WithMaxDenominator(n int) Option {
	return func(c *config) {
		c.maxDen = n
	}
}

func newConfig(opts []Option) config {
	cfg := config{profile: QualityProfile(QualityBalanced), maxDen: 1024}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Ratio reduces outRate/inRate to the fraction up/down with down at most
// maxDen. The fraction must reproduce outRate to within one part per million.
func Ratio(inRate, outRate float64, maxDen int) (up, down int, err error) {
	if !(inRate > 0) || !(outRate > 0) || math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return 0, 0, fmt.Errorf("%w: %g Hz to %g Hz", ErrInvalidRate, inRate, outRate)
	}

	up, down = approximateRatio(outRate/inRate, maxDen)
	if got := inRate * float64(up) / float64(down); math.Abs(got-outRate) > 1e-6*outRate {
		return 0, 0, fmt.Errorf("%w: %g Hz to %g Hz has no ratio with denominator <= %d", ErrInvalidRate, inRate, outRate, maxDen)
	}

	return up, down, nil
}

// OutputLen returns the number of samples produced from n input samples.
func OutputLen(n, up, down int) int {
	if n <= 0 || up <= 0 || down <= 0 {
		return 0
	}

	return (n*up + down - 1) / down
}

// Design returns the prototype low-pass taps for the reduced ratio up/down.
// The taps are symmetric with an odd count and sum to up.
func Design(up, down int, opts ...Option) ([]float64, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}

	g := gcd(up, down)

	return design(up/g, down/g, newConfig(opts).profile)
}

// Resample converts x by the factor up/down.
func Resample(x []float64, up, down int, opts ...Option) ([]float64, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}

	g := gcd(up, down)
	up, down = up/g, down/g
	if len(x) == 0 {
		return nil, nil
	}
	if up == 1 && down == 1 {
		return slices.Clone(x), nil
	}

	h, err := design(up, down, newConfig(opts).profile)
	if err != nil {
		return nil, err
	}

	return apply(x, h, up, down), nil
}

// ForRates converts x sampled at inRate to outRate.
func ForRates(x []float64, inRate, outRate float64, opts ...Option) ([]float64, error) {
	cfg := newConfig(opts)

	up, down, err := Ratio(inRate, outRate, cfg.maxDen)
	if err != nil {
		return nil, err
	}

	return Resample(x, up, down, opts...)
}

func design(up, down int, p Profile) ([]float64, error) {
	if p.ZeroCrossings <= 0 {
		return nil, errors.New("resample: zero crossings must be > 0")
	}
	if p.CutoffScale <= 0 || p.CutoffScale > 1 {
		return nil, errors.New("resample: cutoff scale must be in (0,1]")
	}

	slow := max(up, down)
	half := p.ZeroCrossings * slow
	n := 2*half + 1
	fc := 0.5 / float64(slow) * p.CutoffScale

	win := window.Kaiser(n, p.KaiserBeta)
	taps := make([]float64, n)

	var sum float64
	for i := range taps {
		t := float64(i - half)
		taps[i] = 2 * fc * core.Sinc(2*fc*t) * win[i]
		sum += taps[i]
	}

	if sum == 0 {
		return nil, errors.New("resample: designed zero-sum filter")
	}

	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}

	return taps, nil
}

// apply evaluates the zero-stuffed, filtered and decimated signal only at the
// output instants. Index arithmetic runs on the upsampled grid of the
// reflected input.
func apply(x, h []float64, up, down int) []float64 {
	half := (len(h) - 1) / 2
	pad := min((half+down)/up+1, len(x)-1)
	ext := oddExtend(x, pad)
	last := (len(ext) - 1) * up

	out := make([]float64, OutputLen(len(x), up, down))
	for m := range out {
		j := pad*up + m*down + half

		k := j % up
		if lo := j - last; lo > k {
			k = lo
		}

		var acc float64
		for ; k < len(h) && k <= j; k += up {
			acc += h[k] * ext[(j-k)/up]
		}
		out[m] = acc
	}

	return out
}

func oddExtend(x []float64, pad int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*pad)
	for i := range pad {
		ext[i] = 2*x[0] - x[pad-i]
		ext[pad+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[pad:], x)

	return ext
}

// approximateRatio finds the continued-fraction convergent of v whose
// denominator stays within maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if maxDen <= 0 {
		maxDen = 1024
	}

	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac < 1e-12 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)
		p2 := a*p1 + p0
		q2 := a*q1 + q0
		if q2 > float64(maxDen) {
			break
		}

		p0, q0 = p1, q1
		p1, q1 = p2, q2
	}

	num = int(math.Round(p1))
	den = int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}

	for b != 0 {
		a, b = b, a%b
	}

	if a == 0 {
		return 1
	}

	return a
}
