package eeg

import (
	"fmt"
	"slices"
	"time"
)

// Position is a sensor location in head coordinates (metres).
type Position struct {
	X, Y, Z float64
}

// Annotation is a labelled time span. Onset and Duration are in seconds
// from the first sample.
type Annotation struct {
	Onset    float64
	Duration float64
	Label    string
}

// Recording is one multichannel EEG session.
//
// Accessors that return slices return copies, except [Recording.Data],
// which exposes the sample matrix for reading.
type Recording struct {
	channels    []string
	kinds       []Kind
	positions   []Position
	hasPosition []bool
	rate        float64
	data        [][]float64
	bad         []bool
	annotations []Annotation
	start       time.Time
	highpass    float64
	lowpass     float64
}

// Option configures a Recording built by [NewRecording].
type Option func(*Recording) error

// WithKinds sets the kind of every channel. The default is [KindEEG].
func WithKinds(kinds []Kind) Option {
	return func(r *Recording) error {
		if len(kinds) != len(r.channels) {
			return fmt.Errorf("%w: %d kinds for %d channels", ErrInvalidParameter, len(kinds), len(r.channels))
		}
		r.kinds = slices.Clone(kinds)
		return nil
	}
}

// WithAnnotations attaches annotations.
func WithAnnotations(a []Annotation) Option {
	return func(r *Recording) error {
		r.annotations = slices.Clone(a)
		return nil
	}
}

// WithStartTime sets the measurement start.
func WithStartTime(t time.Time) Option {
	return func(r *Recording) error {
		r.start = t
		return nil
	}
}

// WithFilterBand records the highpass and lowpass edges already applied to
// the data. Zero means none.
func WithFilterBand(highpass, lowpass float64) Option {
	return func(r *Recording) error {
		r.highpass, r.lowpass = highpass, lowpass
		return nil
	}
}

// NewRecording validates and copies its inputs. Channel names must be
// unique and non-empty, rate positive, and data one equally long row per
// channel.
func NewRecording(channels []string, rate float64, data [][]float64, opts ...Option) (*Recording, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidParameter, rate)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidParameter)
	}
	if len(data) != len(channels) {
		return nil, fmt.Errorf("%w: %d data rows for %d channels", ErrInvalidParameter, len(data), len(channels))
	}
	seen := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		if ch == "" {
			return nil, fmt.Errorf("%w: empty channel name", ErrInvalidParameter)
		}
		if _, dup := seen[ch]; dup {
			return nil, fmt.Errorf("%w: duplicate channel %q", ErrInvalidParameter, ch)
		}
		seen[ch] = struct{}{}
	}
	n := len(data[0])
	for i, row := range data {
		if len(row) != n {
			return nil, fmt.Errorf("%w: channel %q has %d samples, want %d", ErrInvalidParameter, channels[i], len(row), n)
		}
	}

	r := &Recording{
		channels:    slices.Clone(channels),
		kinds:       make([]Kind, len(channels)),
		positions:   make([]Position, len(channels)),
		hasPosition: make([]bool, len(channels)),
		rate:        rate,
		data:        cloneMatrix(data),
		bad:         make([]bool, len(channels)),
	}
	for _, o := range opts {
		if err := o(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Clone returns a deep copy.
func (r *Recording) Clone() *Recording {
	return &Recording{
		channels:    slices.Clone(r.channels),
		kinds:       slices.Clone(r.kinds),
		positions:   slices.Clone(r.positions),
		hasPosition: slices.Clone(r.hasPosition),
		rate:        r.rate,
		data:        cloneMatrix(r.data),
		bad:         slices.Clone(r.bad),
		annotations: slices.Clone(r.annotations),
		start:       r.start,
		highpass:    r.highpass,
		lowpass:     r.lowpass,
	}
}

// WithData returns a copy carrying data in place of the samples. The matrix
// must have one row per channel; the row length may differ from the source.
func (r *Recording) WithData(data [][]float64) (*Recording, error) {
	if len(data) != len(r.channels) {
		return nil, fmt.Errorf("%w: %d data rows for %d channels", ErrInvalidParameter, len(data), len(r.channels))
	}
	for i, row := range data {
		if len(row) != len(data[0]) {
			return nil, fmt.Errorf("%w: channel %q has %d samples, want %d", ErrInvalidParameter, r.channels[i], len(row), len(data[0]))
		}
	}
	out := r.shallowMeta()
	out.data = cloneMatrix(data)
	return out, nil
}

// WithRate returns a copy sampled at rate and carrying data. Annotation
// onsets are in seconds and carry over unchanged.
func (r *Recording) WithRate(rate float64, data [][]float64) (*Recording, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidParameter, rate)
	}
	out, err := r.WithData(data)
	if err != nil {
		return nil, err
	}
	out.rate = rate
	return out, nil
}

func (r *Recording) shallowMeta() *Recording {
	return &Recording{
		channels:    slices.Clone(r.channels),
		kinds:       slices.Clone(r.kinds),
		positions:   slices.Clone(r.positions),
		hasPosition: slices.Clone(r.hasPosition),
		rate:        r.rate,
		bad:         slices.Clone(r.bad),
		annotations: slices.Clone(r.annotations),
		start:       r.start,
		highpass:    r.highpass,
		lowpass:     r.lowpass,
	}
}

// Channels returns the channel names in order.
func (r *Recording) Channels() []string { return slices.Clone(r.channels) }

// NumChannels returns the channel count.
func (r *Recording) NumChannels() int { return len(r.channels) }

// Channel returns the name of channel i.
func (r *Recording) Channel(i int) string { return r.channels[i] }

// Kind returns the kind of channel i.
func (r *Recording) Kind(i int) Kind { return r.kinds[i] }

// Kinds returns the channel kinds in order.
func (r *Recording) Kinds() []Kind { return slices.Clone(r.kinds) }

// Rate returns the sample rate in Hz.
func (r *Recording) Rate() float64 { return r.rate }

// NumSamples returns the number of samples per channel.
func (r *Recording) NumSamples() int {
	if len(r.data) == 0 {
		return 0
	}
	return len(r.data[0])
}

// Duration returns the recording length in seconds.
func (r *Recording) Duration() float64 { return float64(r.NumSamples()) / r.rate }

// Times returns the time in seconds of every sample.
func (r *Recording) Times() []float64 {
	t := make([]float64, r.NumSamples())
	for i := range t {
		t[i] = float64(i) / r.rate
	}
	return t
}

// Data returns the sample matrix. Callers must not modify it.
func (r *Recording) Data() [][]float64 { return r.data }

// Row returns a copy of the samples of channel i.
func (r *Recording) Row(i int) []float64 { return slices.Clone(r.data[i]) }

// StartTime returns the measurement start.
func (r *Recording) StartTime() time.Time { return r.start }

// FilterBand returns the highpass and lowpass edges applied so far.
func (r *Recording) FilterBand() (highpass, lowpass float64) { return r.highpass, r.lowpass }

// WithFilterBand returns a copy with updated filter edges.
func (r *Recording) WithFilterBand(highpass, lowpass float64) *Recording {
	out := r.Clone()
	out.highpass, out.lowpass = highpass, lowpass
	return out
}

// Annotations returns the annotations in stored order.
func (r *Recording) Annotations() []Annotation { return slices.Clone(r.annotations) }

// WithAnnotations returns a copy carrying a instead of the current
// annotations.
func (r *Recording) WithAnnotations(a []Annotation) *Recording {
	out := r.Clone()
	out.annotations = slices.Clone(a)
	return out
}

// ChannelIndex looks up a channel by name.
func (r *Recording) ChannelIndex(name string) (int, bool) {
	i := slices.Index(r.channels, name)
	return i, i >= 0
}

// Position returns the sensor position of channel i, if one is assigned.
func (r *Recording) Position(i int) (Position, bool) {
	return r.positions[i], r.hasPosition[i]
}

// WithPositions returns a copy with the given positions assigned by channel
// name. Channels absent from pos keep their current position.
func (r *Recording) WithPositions(pos map[string]Position) (*Recording, error) {
	out := r.Clone()
	for name, p := range pos {
		i, ok := out.ChannelIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
		}
		out.positions[i] = p
		out.hasPosition[i] = true
	}
	return out, nil
}

// IsBad reports whether channel i is marked bad.
func (r *Recording) IsBad(i int) bool { return r.bad[i] }

// Bads returns the bad channel names in channel order.
func (r *Recording) Bads() []string {
	var out []string
	for i, b := range r.bad {
		if b {
			out = append(out, r.channels[i])
		}
	}
	return out
}

// WithBads returns a copy whose bad set is exactly names. Every name must
// be a channel of r.
func (r *Recording) WithBads(names ...string) (*Recording, error) {
	bad := make([]bool, len(r.channels))
	for _, name := range names {
		i, ok := r.ChannelIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
		}
		bad[i] = true
	}
	out := r.Clone()
	out.bad = bad
	return out, nil
}

// PickKind returns the indices of channels of kind k.
func (r *Recording) PickKind(k Kind) []int {
	var out []int
	for i, kk := range r.kinds {
		if kk == k {
			out = append(out, i)
		}
	}
	return out
}

// GoodIndices returns the indices of channels of kind k that are not bad.
func (r *Recording) GoodIndices(k Kind) []int {
	var out []int
	for i, kk := range r.kinds {
		if kk == k && !r.bad[i] {
			out = append(out, i)
		}
	}
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = slices.Clone(row)
	}
	return out
}
