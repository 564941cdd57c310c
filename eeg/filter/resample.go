package filter

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-eeg/dsp/resample"
	"github.com/cwbudde/algo-eeg/eeg"
)

// Resample returns a copy of rec sampled at rate. Data channels pass through
// the anti-aliasing resampler; stimulus channels take the nearest earlier
// sample so trigger codes stay intact. The recorded lowpass edge is lowered
// to the new Nyquist frequency when needed.
func Resample(rec *eeg.Recording, rate float64) (*eeg.Recording, error) {
	if rate == rec.Rate() {
		return rec.Clone(), nil
	}

	up, down, err := resample.Ratio(rec.Rate(), rate, 1024)
	if err != nil {
		if errors.Is(err, resample.ErrInvalidRate) {
			return nil, fmt.Errorf("%w: %w", eeg.ErrInvalidParameter, err)
		}
		return nil, err
	}

	data := rec.Data()
	next := make([][]float64, len(data))
	for i, row := range data {
		if rec.Kind(i) == eeg.KindStim {
			next[i] = hold(row, up, down)
			continue
		}
		y, err := resample.Resample(row, up, down)
		if err != nil {
			return nil, fmt.Errorf("resample channel %s: %w", rec.Channel(i), err)
		}
		next[i] = y
	}

	out, err := rec.WithRate(rate, next)
	if err != nil {
		return nil, err
	}

	hp, lp := out.FilterBand()
	if nyq := rate / 2; lp == 0 || lp > nyq {
		lp = nyq
	}
	return out.WithFilterBand(hp, lp), nil
}

func hold(x []float64, up, down int) []float64 {
	out := make([]float64, resample.OutputLen(len(x), up, down))
	for m := range out {
		out[m] = x[m*down/up]
	}
	return out
}
