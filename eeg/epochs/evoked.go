package epochs

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-eeg/eeg"
)

// Evoked is the average response over a set of epochs.
type Evoked struct {
	Channels []string
	Kinds    []eeg.Kind
	Bads     []string
	Rate     float64
	Label    string
	Before   int
	NAve     int
	Data     [][]float64
}

// Average returns the sample-wise mean of all epochs.
func Average(ep *Epochs) (*Evoked, error) {
	if ep.Len() == 0 {
		return nil, fmt.Errorf("%w: no epochs to average", eeg.ErrInvalidParameter)
	}

	ns := ep.NumSamples()
	data := make([][]float64, len(ep.Channels))
	for c := range data {
		data[c] = make([]float64, ns)
	}
	for _, win := range ep.Data {
		for c, row := range win {
			for i, v := range row {
				data[c][i] += v
			}
		}
	}
	inv := 1 / float64(ep.Len())
	for _, row := range data {
		for i := range row {
			row[i] *= inv
		}
	}

	return &Evoked{
		Channels: append([]string(nil), ep.Channels...),
		Kinds:    append([]eeg.Kind(nil), ep.Kinds...),
		Bads:     append([]string(nil), ep.Bads...),
		Rate:     ep.Rate,
		Label:    ep.Label,
		Before:   ep.Before,
		NAve:     ep.Len(),
		Data:     data,
	}, nil
}

// Times returns sample times in seconds relative to the event.
func (e *Evoked) Times() []float64 {
	if len(e.Data) == 0 {
		return nil
	}
	t := make([]float64, len(e.Data[0]))
	for i := range t {
		t[i] = float64(i-e.Before) / e.Rate
	}
	return t
}

// Peak returns the good EEG channel and latency of the largest absolute
// amplitude.
func (e *Evoked) Peak() (channel string, latency, amplitude float64) {
	bad := make(map[string]bool, len(e.Bads))
	for _, b := range e.Bads {
		bad[b] = true
	}
	best := -1.0
	for c, row := range e.Data {
		if e.Kinds[c] != eeg.KindEEG || bad[e.Channels[c]] {
			continue
		}
		for i, v := range row {
			if math.Abs(v) > best {
				best = math.Abs(v)
				channel = e.Channels[c]
				latency = float64(i-e.Before) / e.Rate
				amplitude = v
			}
		}
	}
	return channel, latency, amplitude
}
