// Package eegtest builds synthetic recordings for tests.
package eegtest

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-eeg/eeg"
)

// Params describes a synthetic recording. Every channel carries a 10 Hz alpha
// rhythm with a per-channel phase plus seeded white noise.
type Params struct {
	Channels    []string
	Kinds       []eeg.Kind
	Rate        float64
	Seconds     float64
	Seed        int64
	NoiseAmp    float64
	Annotations []eeg.Annotation
}

// Recording builds the recording described by s and panics on invalid input.
func Recording(s Params) *eeg.Recording {
	data := Matrix(len(s.Channels), int(s.Seconds*s.Rate), s.Rate, s.Seed, s.NoiseAmp)
	opts := []eeg.Option{eeg.WithAnnotations(s.Annotations)}
	if s.Kinds != nil {
		opts = append(opts, eeg.WithKinds(s.Kinds))
	}
	rec, err := eeg.NewRecording(s.Channels, s.Rate, data, opts...)
	if err != nil {
		panic(err)
	}
	return rec
}

// Matrix returns channels rows of n samples.
func Matrix(channels, n int, rate float64, seed int64, noise float64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	data := make([][]float64, channels)
	for c := range data {
		phase := 2 * math.Pi * float64(c) / float64(channels)
		row := make([]float64, n)
		for i := range row {
			row[i] = 10e-6*math.Sin(2*math.Pi*10*float64(i)/rate+phase) + noise*(rng.Float64()*2-1)
		}
		data[c] = row
	}
	return data
}

// Periodic returns annotations with the given label every period seconds,
// starting at first, while onset < until.
func Periodic(label string, first, period, until float64) []eeg.Annotation {
	var out []eeg.Annotation
	for t := first; t < until; t += period {
		out = append(out, eeg.Annotation{Onset: t, Label: label})
	}
	return out
}
