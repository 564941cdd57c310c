// Package reference re-references EEG channels.
package reference

import (
	"fmt"

	"github.com/cwbudde/algo-eeg/eeg"
)

// Average returns a copy of rec in which the per-sample mean of the good
// EEG channels is subtracted from every EEG channel, bad ones included.
// Other channel kinds are left untouched.
func Average(rec *eeg.Recording) (*eeg.Recording, error) {
	good := rec.GoodIndices(eeg.KindEEG)
	if len(good) == 0 {
		return nil, fmt.Errorf("%w: no good EEG channels for an average reference", eeg.ErrInvalidParameter)
	}

	data := rec.Data()
	ref := make([]float64, rec.NumSamples())
	for _, ch := range good {
		for i, v := range data[ch] {
			ref[i] += v
		}
	}
	inv := 1 / float64(len(good))
	for i := range ref {
		ref[i] *= inv
	}

	next := make([][]float64, len(data))
	copy(next, data)
	for _, ch := range rec.PickKind(eeg.KindEEG) {
		row := make([]float64, len(ref))
		for i, v := range data[ch] {
			row[i] = v - ref[i]
		}
		next[ch] = row
	}
	return rec.WithData(next)
}

// Channel returns a copy of rec re-referenced to the named channel, which
// becomes flat.
func Channel(rec *eeg.Recording, name string) (*eeg.Recording, error) {
	idx, ok := rec.ChannelIndex(name)
	if !ok {
		return nil, fmt.Errorf("%w: reference %q", eeg.ErrUnknownChannel, name)
	}

	data := rec.Data()
	ref := data[idx]
	next := make([][]float64, len(data))
	copy(next, data)
	for _, ch := range rec.PickKind(eeg.KindEEG) {
		row := make([]float64, len(ref))
		for i, v := range data[ch] {
			row[i] = v - ref[i]
		}
		next[ch] = row
	}
	return rec.WithData(next)
}
