package epochs

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-eeg/eeg"
)

// Window is an epoch span in seconds relative to each event.
type Window struct {
	TMin float64
	TMax float64
}

// DefaultWindow spans 0.2 s before to 0.8 s after the event.
var DefaultWindow = Window{TMin: -0.2, TMax: 0.8}

// Bounds returns the sample counts before and after the event sample:
// floor(-TMin*rate) and floor(TMax*rate).
func (w Window) Bounds(rate float64) (before, after int) {
	const eps = 1e-9
	return int(math.Floor(-w.TMin*rate + eps)), int(math.Floor(w.TMax*rate + eps))
}

func (w Window) validate() error {
	if w.TMin > 0 || w.TMax < 0 || w.TMin >= w.TMax {
		return fmt.Errorf("%w: epoch window [%g, %g] must contain 0", eeg.ErrInvalidParameter, w.TMin, w.TMax)
	}
	return nil
}

// Epochs is a set of equally long windows cut from one recording.
type Epochs struct {
	Channels []string
	Kinds    []eeg.Kind
	Bads     []string
	Rate     float64
	Label    string
	// Before is the number of samples preceding the event sample.
	Before int
	Events []Event
	// Dropped lists events skipped for bounds or amplitude reasons.
	Dropped []Event
	// Data is indexed epoch, channel, sample.
	Data [][][]float64
}

// Len returns the number of epochs.
func (e *Epochs) Len() int { return len(e.Data) }

// NumSamples returns the samples per epoch.
func (e *Epochs) NumSamples() int {
	if len(e.Data) == 0 || len(e.Data[0]) == 0 {
		return 0
	}
	return len(e.Data[0][0])
}

// Times returns sample times in seconds relative to the event.
func (e *Epochs) Times() []float64 {
	n := e.NumSamples()
	if n == 0 {
		n = e.Before + 1
	}
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i-e.Before) / e.Rate
	}
	return t
}

// TMin returns the time of the first sample.
func (e *Epochs) TMin() float64 { return -float64(e.Before) / e.Rate }

// ChannelIndex looks up a channel by name.
func (e *Epochs) ChannelIndex(name string) (int, bool) {
	for i, ch := range e.Channels {
		if ch == name {
			return i, true
		}
	}
	return -1, false
}

// Concat joins one channel of every epoch end to end.
func (e *Epochs) Concat(ch int) []float64 {
	out := make([]float64, 0, e.Len()*e.NumSamples())
	for _, ep := range e.Data {
		out = append(out, ep[ch]...)
	}
	return out
}

type config struct {
	baseline   bool
	dropOOB    bool
	rejectPeak float64
}

// Option configures epoch extraction.
type Option func(*config)

// WithBaseline toggles subtraction of the channel mean over t <= 0 on EEG
// and EOG channels. It is on by default.
func WithBaseline(on bool) Option {
	return func(c *config) { c.baseline = on }
}

// WithDropOutOfBounds skips events whose window leaves the recording
// instead of failing with eeg.ErrOutOfBounds.
func WithDropOutOfBounds() Option {
	return func(c *config) { c.dropOOB = true }
}

// WithRejectPeakToPeak drops epochs in which any good EEG channel exceeds
// the given peak-to-peak amplitude.
func WithRejectPeakToPeak(limit float64) Option {
	return func(c *config) { c.rejectPeak = limit }
}

// Extract cuts a window around every event whose code maps to label.
// An absent label fails with eeg.ErrMissingCondition before anything is
// computed.
func Extract(rec *eeg.Recording, events []Event, m EventMap, label string, w Window, opts ...Option) (*Epochs, error) {
	code, ok := m.Code(label)
	if !ok {
		return nil, fmt.Errorf("%w: %q not among %v", eeg.ErrMissingCondition, label, m.Labels())
	}
	ep, err := Cut(rec, Select(events, code), w, opts...)
	if err != nil {
		return nil, err
	}
	ep.Label = label
	return ep, nil
}

// Cut cuts a window around every event regardless of code.
func Cut(rec *eeg.Recording, events []Event, w Window, opts ...Option) (*Epochs, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	cfg := config{baseline: true}
	for _, o := range opts {
		o(&cfg)
	}

	before, after := w.Bounds(rec.Rate())
	n := rec.NumSamples()
	ep := &Epochs{
		Channels: rec.Channels(),
		Kinds:    rec.Kinds(),
		Bads:     rec.Bads(),
		Rate:     rec.Rate(),
		Before:   before,
	}
	good := rec.GoodIndices(eeg.KindEEG)

	data := rec.Data()
	for _, ev := range events {
		start, stop := ev.Sample-before, ev.Sample+after
		if start < 0 || stop >= n {
			if cfg.dropOOB {
				ep.Dropped = append(ep.Dropped, ev)
				continue
			}
			return nil, fmt.Errorf("%w: event at sample %d needs [%d, %d] of %d samples",
				eeg.ErrOutOfBounds, ev.Sample, start, stop, n)
		}

		win := make([][]float64, len(data))
		for c, row := range data {
			seg := make([]float64, stop-start+1)
			copy(seg, row[start:stop+1])
			if cfg.baseline && baselined(rec.Kind(c)) {
				subtractBaseline(seg, before)
			}
			win[c] = seg
		}

		if cfg.rejectPeak > 0 && exceeds(win, good, cfg.rejectPeak) {
			ep.Dropped = append(ep.Dropped, ev)
			continue
		}
		ep.Events = append(ep.Events, ev)
		ep.Data = append(ep.Data, win)
	}
	return ep, nil
}

// baselined reports whether baseline correction applies to kind k. Trigger
// and auxiliary channels keep their raw values.
func baselined(k eeg.Kind) bool { return k == eeg.KindEEG || k == eeg.KindEOG }

// subtractBaseline removes the mean of seg[0..zero] inclusive.
func subtractBaseline(seg []float64, zero int) {
	mean := 0.0
	for _, v := range seg[:zero+1] {
		mean += v
	}
	mean /= float64(zero + 1)
	for i := range seg {
		seg[i] -= mean
	}
}

func exceeds(win [][]float64, channels []int, limit float64) bool {
	for _, c := range channels {
		lo, hi := win[c][0], win[c][0]
		for _, v := range win[c] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi-lo > limit {
			return true
		}
	}
	return false
}
