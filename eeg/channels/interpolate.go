package channels

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-eeg/eeg"
)

const (
	splineOrder    = 4
	legendreTerms  = 7
	regularization = 1e-5
)

type interpConfig struct {
	resetBads bool
}

// Option configures [Interpolate].
type Option func(*interpConfig)

// WithResetBads controls whether interpolated channels are removed from the
// bad set. The default is true.
func WithResetBads(reset bool) Option {
	return func(c *interpConfig) { c.resetBads = reset }
}

// Interpolate returns a copy of rec in which every bad EEG channel is
// replaced by a spherical-spline estimate from the good EEG channels.
// All involved channels need positions; see the montage package.
func Interpolate(rec *eeg.Recording, opts ...Option) (*eeg.Recording, error) {
	cfg := interpConfig{resetBads: true}
	for _, o := range opts {
		o(&cfg)
	}

	var from, to []int
	for _, i := range rec.PickKind(eeg.KindEEG) {
		if rec.IsBad(i) {
			to = append(to, i)
		} else {
			from = append(from, i)
		}
	}
	if len(to) == 0 {
		return rec.Clone(), nil
	}
	if len(from) == 0 {
		return nil, fmt.Errorf("%w: no good EEG channels to interpolate from", eeg.ErrInvalidParameter)
	}

	fromPos, err := unitPositions(rec, from)
	if err != nil {
		return nil, err
	}
	toPos, err := unitPositions(rec, to)
	if err != nil {
		return nil, err
	}

	weights, err := InterpolationMatrix(fromPos, toPos)
	if err != nil {
		return nil, err
	}

	data := rec.Data()
	n := rec.NumSamples()
	src := mat.NewDense(len(from), n, nil)
	for r, ch := range from {
		src.SetRow(r, data[ch])
	}
	var est mat.Dense
	est.Mul(weights, src)

	next := make([][]float64, len(data))
	copy(next, data)
	for r, ch := range to {
		next[ch] = mat.Row(nil, r, &est)
	}

	out, err := rec.WithData(next)
	if err != nil {
		return nil, err
	}
	if !cfg.resetBads {
		return out, nil
	}

	var keep []string
	for _, name := range out.Bads() {
		i, _ := out.ChannelIndex(name)
		if out.Kind(i) != eeg.KindEEG {
			keep = append(keep, name)
		}
	}
	return out.WithBads(keep...)
}

// InterpolationMatrix returns the len(to) x len(from) spherical-spline
// weights for unit vectors from and to.
func InterpolationMatrix(from, to []eeg.Position) (*mat.Dense, error) {
	nf := len(from)
	c := mat.NewDense(nf+1, nf+1, nil)
	for i := range from {
		for j := range from {
			g := legendreG(cosine(from[i], from[j]))
			if i == j {
				g += regularization
			}
			c.Set(i, j, g)
		}
		c.Set(i, nf, 1)
		c.Set(nf, i, 1)
	}

	cInv, err := pinv(c)
	if err != nil {
		return nil, err
	}

	gTo := mat.NewDense(len(to), nf+1, nil)
	for i := range to {
		for j := range from {
			gTo.Set(i, j, legendreG(cosine(to[i], from[j])))
		}
		gTo.Set(i, nf, 1)
	}

	var w mat.Dense
	w.Mul(gTo, cInv.Slice(0, nf+1, 0, nf))
	return &w, nil
}

// legendreG evaluates the spline kernel
// g(x) = 1/(4 pi) sum_n (2n+1) / (n^m (n+1)^m) P_n(x).
func legendreG(x float64) float64 {
	pPrev, p := 1.0, x
	sum := 0.0
	for n := 1; n <= legendreTerms; n++ {
		nf := float64(n)
		sum += (2*nf + 1) / math.Pow(nf*(nf+1), splineOrder) * p
		pPrev, p = p, ((2*nf+1)*x*p-nf*pPrev)/(nf+1)
	}
	return sum / (4 * math.Pi)
}

func cosine(a, b eeg.Position) float64 {
	d := a.X*b.X + a.Y*b.Y + a.Z*b.Z
	return math.Max(-1, math.Min(1, d))
}

func unitPositions(rec *eeg.Recording, idx []int) ([]eeg.Position, error) {
	out := make([]eeg.Position, len(idx))
	for k, i := range idx {
		p, ok := rec.Position(i)
		if !ok {
			return nil, fmt.Errorf("%w: channel %s has no position", eeg.ErrInvalidParameter, rec.Channel(i))
		}
		r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
		if r == 0 {
			return nil, fmt.Errorf("%w: channel %s is at the origin", eeg.ErrInvalidParameter, rec.Channel(i))
		}
		out[k] = eeg.Position{X: p.X / r, Y: p.Y / r, Z: p.Z / r}
	}
	return out, nil
}

// pinv returns the Moore-Penrose pseudo-inverse of a via SVD, discarding
// singular values below 1e-15 of the largest.
func pinv(a *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: SVD did not converge", eeg.ErrInvalidParameter)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	cutoff := 1e-15 * s[0]
	_, cols := u.Dims()
	for j := 0; j < cols; j++ {
		inv := 0.0
		if s[j] > cutoff {
			inv = 1 / s[j]
		}
		for i := range v.RawMatrix().Rows {
			v.Set(i, j, v.At(i, j)*inv)
		}
	}

	var out mat.Dense
	out.Mul(&v, u.T())
	return &out, nil
}
