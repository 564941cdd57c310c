package ica

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-eeg/eeg"
)

const (
	// DefaultMaxIter is used when Config.MaxIter is zero ("auto").
	DefaultMaxIter = 1000
	// DefaultTol is used when Config.Tol is zero.
	DefaultTol = 1e-4
)

// Config parameterizes [Fit].
type Config struct {
	NComponents int
	Seed        int64
	MaxIter     int
	Tol         float64
}

// ICA is a fitted decomposition over a fixed channel list.
type ICA struct {
	channels  []string
	mean      []float64
	eigvals   []float64
	unmixing  *mat.Dense // components x channels
	mixing    *mat.Dense // channels x components
	exclude   []int
	nIter     int
	converged bool
}

// Fit decomposes the good EEG channels of rec into cfg.NComponents
// components.
func Fit(rec *eeg.Recording, cfg Config) (*ICA, error) {
	picks := rec.GoodIndices(eeg.KindEEG)
	n := cfg.NComponents
	switch {
	case n < 1:
		return nil, fmt.Errorf("%w: %d components", eeg.ErrInvalidParameter, n)
	case n > len(picks):
		return nil, fmt.Errorf("%w: %d components for %d good EEG channels", eeg.ErrInvalidParameter, n, len(picks))
	case rec.NumSamples() < 2:
		return nil, fmt.Errorf("%w: %d samples", eeg.ErrInvalidParameter, rec.NumSamples())
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = DefaultMaxIter
	}
	if cfg.Tol == 0 {
		cfg.Tol = DefaultTol
	}
	if cfg.MaxIter < 0 || cfg.Tol < 0 {
		return nil, fmt.Errorf("%w: max_iter %d tol %g", eeg.ErrInvalidParameter, cfg.MaxIter, cfg.Tol)
	}

	nch := len(picks)
	ns := rec.NumSamples()
	data := rec.Data()

	ic := &ICA{mean: make([]float64, nch)}
	xc := mat.NewDense(nch, ns, nil)
	for r, ch := range picks {
		ic.channels = append(ic.channels, rec.Channel(ch))
		row := data[ch]
		m := 0.0
		for _, v := range row {
			m += v
		}
		m /= float64(ns)
		ic.mean[r] = m
		for i, v := range row {
			xc.Set(r, i, v-m)
		}
	}

	vals, vecs, err := principalAxes(xc)
	if err != nil {
		return nil, err
	}
	ic.eigvals = vals
	if vals[n-1] <= vals[0]*1e-12 {
		return nil, fmt.Errorf("%w: %d components exceed the data rank", eeg.ErrInvalidParameter, n)
	}

	// whitener = D^-1/2 E_n^T, dewhitener = E_n D^1/2.
	whitener := mat.NewDense(n, nch, nil)
	dewhitener := mat.NewDense(nch, n, nil)
	for k := 0; k < n; k++ {
		s := math.Sqrt(vals[k])
		for c := 0; c < nch; c++ {
			whitener.Set(k, c, vecs.At(c, k)/s)
			dewhitener.Set(c, k, vecs.At(c, k)*s)
		}
	}
	var z mat.Dense
	z.Mul(whitener, xc)

	w, iters, converged, err := fastICA(&z, n, cfg)
	if err != nil {
		return nil, err
	}
	ic.nIter, ic.converged = iters, converged

	ic.unmixing = mat.NewDense(n, nch, nil)
	ic.unmixing.Mul(w, whitener)
	ic.mixing = mat.NewDense(nch, n, nil)
	ic.mixing.Mul(dewhitener, w.T())
	return ic, nil
}

// principalAxes returns the covariance eigenvalues in descending order and
// the matching eigenvectors as columns. Each vector is signed so that its
// largest-magnitude entry is positive.
func principalAxes(xc *mat.Dense) ([]float64, *mat.Dense, error) {
	nch, ns := xc.Dims()
	cov := mat.NewSymDense(nch, nil)
	cov.SymOuterK(1/float64(ns-1), xc)

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, nil, fmt.Errorf("%w: covariance eigendecomposition failed", eeg.ErrInvalidParameter)
	}
	asc := eig.Values(nil)
	var ev mat.Dense
	eig.VectorsTo(&ev)

	order := make([]int, nch)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return asc[order[a]] > asc[order[b]] })

	vals := make([]float64, nch)
	vecs := mat.NewDense(nch, nch, nil)
	for k, src := range order {
		vals[k] = math.Max(asc[src], 0)
		col := mat.Col(nil, src, &ev)
		big := 0
		for i := range col {
			if math.Abs(col[i]) > math.Abs(col[big]) {
				big = i
			}
		}
		sign := 1.0
		if col[big] < 0 {
			sign = -1
		}
		for i, v := range col {
			vecs.Set(i, k, sign*v)
		}
	}
	return vals, vecs, nil
}

// fastICA runs the parallel fixed-point iteration with g = tanh on
// whitened data z (n x samples).
func fastICA(z *mat.Dense, n int, cfg Config) (*mat.Dense, int, bool, error) {
	_, ns := z.Dims()
	rng := rand.New(rand.NewSource(cfg.Seed))
	init := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			init.Set(i, j, rng.NormFloat64())
		}
	}
	w, err := symDecorrelate(init)
	if err != nil {
		return nil, 0, false, err
	}

	var (
		wz   mat.Dense
		gzT  mat.Dense
		next = mat.NewDense(n, n, nil)
		gp   = make([]float64, n)
	)
	for it := 1; it <= cfg.MaxIter; it++ {
		wz.Mul(w, z)
		for i := 0; i < n; i++ {
			row := wz.RawRowView(i)
			sum := 0.0
			for k, v := range row {
				g := math.Tanh(v)
				row[k] = g
				sum += 1 - g*g
			}
			gp[i] = sum / float64(ns)
		}
		gzT.Mul(&wz, z.T())
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				next.Set(i, j, gzT.At(i, j)/float64(ns)-gp[i]*w.At(i, j))
			}
		}

		nw, err := symDecorrelate(next)
		if err != nil {
			return nil, it, false, err
		}

		lim := 0.0
		for i := 0; i < n; i++ {
			d := 0.0
			for j := 0; j < n; j++ {
				d += nw.At(i, j) * w.At(i, j)
			}
			lim = math.Max(lim, math.Abs(math.Abs(d)-1))
		}
		w = nw
		if lim < cfg.Tol {
			return w, it, true, nil
		}
	}
	return w, cfg.MaxIter, false, nil
}

// symDecorrelate returns (W W^T)^-1/2 W.
func symDecorrelate(w *mat.Dense) (*mat.Dense, error) {
	n, _ := w.Dims()
	s := mat.NewSymDense(n, nil)
	s.SymOuterK(1, w)

	var eig mat.EigenSym
	if !eig.Factorize(s, true) {
		return nil, fmt.Errorf("%w: decorrelation failed", eeg.ErrInvalidParameter)
	}
	vals := eig.Values(nil)
	var v mat.Dense
	eig.VectorsTo(&v)

	scaled := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if vals[j] <= 0 {
				return nil, fmt.Errorf("%w: singular unmixing matrix", eeg.ErrInvalidParameter)
			}
			scaled.Set(i, j, v.At(i, j)/math.Sqrt(vals[j]))
		}
	}
	var root, out mat.Dense
	root.Mul(scaled, v.T())
	out.Mul(&root, w)
	return &out, nil
}

// NComponents returns the number of fitted components.
func (ic *ICA) NComponents() int {
	r, _ := ic.unmixing.Dims()
	return r
}

// Channels returns the channel names the decomposition was fitted on.
func (ic *ICA) Channels() []string { return slices.Clone(ic.channels) }

// Iterations returns the FastICA iteration count and whether it converged.
func (ic *ICA) Iterations() (int, bool) { return ic.nIter, ic.converged }

// ExplainedVariance returns the fraction of channel variance captured by
// each retained PCA component.
func (ic *ICA) ExplainedVariance() []float64 {
	total := 0.0
	for _, v := range ic.eigvals {
		total += v
	}
	out := make([]float64, ic.NComponents())
	if total == 0 {
		return out
	}
	for i := range out {
		out[i] = ic.eigvals[i] / total
	}
	return out
}

// Mixing returns a copy of the channels x components mixing matrix.
func (ic *ICA) Mixing() *mat.Dense { return mat.DenseCopyOf(ic.mixing) }

// Unmixing returns a copy of the components x channels unmixing matrix.
func (ic *ICA) Unmixing() *mat.Dense { return mat.DenseCopyOf(ic.unmixing) }

// SetExclude replaces the excluded component set. Every index must lie in
// [0, NComponents); duplicates are dropped.
func (ic *ICA) SetExclude(idx ...int) error {
	n := ic.NComponents()
	var out []int
	for _, i := range idx {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: component %d outside [0, %d)", eeg.ErrInvalidParameter, i, n)
		}
		if !slices.Contains(out, i) {
			out = append(out, i)
		}
	}
	ic.exclude = out
	return nil
}

// Exclude returns the excluded components.
func (ic *ICA) Exclude() []int { return slices.Clone(ic.exclude) }

// picks maps the fitted channels onto rec.
func (ic *ICA) picks(channels []string) ([]int, error) {
	out := make([]int, len(ic.channels))
	for k, name := range ic.channels {
		i := slices.Index(channels, name)
		if i < 0 {
			return nil, fmt.Errorf("%w: fitted channel %q", eeg.ErrUnknownChannel, name)
		}
		out[k] = i
	}
	return out, nil
}

func (ic *ICA) sources(data [][]float64, picks []int) *mat.Dense {
	ns := len(data[picks[0]])
	xc := mat.NewDense(len(picks), ns, nil)
	for r, ch := range picks {
		for i, v := range data[ch] {
			xc.Set(r, i, v-ic.mean[r])
		}
	}
	var s mat.Dense
	s.Mul(ic.unmixing, xc)
	return &s
}

// Sources returns the component time courses of rec, one row per
// component.
func (ic *ICA) Sources(rec *eeg.Recording) ([][]float64, error) {
	if ic == nil || ic.unmixing == nil {
		return nil, eeg.ErrNotFitted
	}
	picks, err := ic.picks(rec.Channels())
	if err != nil {
		return nil, err
	}
	s := ic.sources(rec.Data(), picks)
	out := make([][]float64, ic.NComponents())
	for i := range out {
		out[i] = mat.Row(nil, i, s)
	}
	return out, nil
}

// Apply returns a copy of rec with the excluded components removed from
// the fitted channels.
func (ic *ICA) Apply(rec *eeg.Recording) (*eeg.Recording, error) {
	if ic == nil || ic.unmixing == nil {
		return nil, eeg.ErrNotFitted
	}
	if len(ic.exclude) == 0 {
		return rec.Clone(), nil
	}
	picks, err := ic.picks(rec.Channels())
	if err != nil {
		return nil, err
	}
	data := rec.Data()
	s := ic.sources(data, picks)

	ns := rec.NumSamples()
	nch := len(picks)
	mixEx := mat.NewDense(nch, len(ic.exclude), nil)
	srcEx := mat.NewDense(len(ic.exclude), ns, nil)
	for k, comp := range ic.exclude {
		for c := 0; c < nch; c++ {
			mixEx.Set(c, k, ic.mixing.At(c, comp))
		}
		srcEx.SetRow(k, s.RawRowView(comp))
	}
	var artifact mat.Dense
	artifact.Mul(mixEx, srcEx)

	next := make([][]float64, len(data))
	copy(next, data)
	for r, ch := range picks {
		row := make([]float64, ns)
		art := artifact.RawRowView(r)
		for i, v := range data[ch] {
			row[i] = v - art[i]
		}
		next[ch] = row
	}
	return rec.WithData(next)
}
