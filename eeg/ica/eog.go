package ica

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/epochs"
	"github.com/cwbudde/algo-eeg/eeg/filter"
	tstats "github.com/cwbudde/algo-eeg/stats/time"
)

// EOG detection constants.
var (
	// EOGBand is the passband used to find blinks and to score components.
	EOGBand = filter.Band{Low: 1, High: 10}
	// EOGWindow is the epoch span around each blink.
	EOGWindow = epochs.Window{TMin: -0.5, TMax: 0.5}
)

// DefaultThreshold is the z-score above which a component counts as
// ocular.
const DefaultThreshold = 3.0

// blinkSpacing is the minimum time between two detected blinks in seconds.
const blinkSpacing = 0.5

// FindEOGEvents locates blink peaks on channel ch. The channel is band-pass
// filtered to [EOGBand]; peaks of the dominant polarity that exceed a
// quarter of the filtered range are kept, at least 0.5 s apart.
func FindEOGEvents(rec *eeg.Recording, ch string) ([]epochs.Event, error) {
	idx, ok := rec.ChannelIndex(ch)
	if !ok {
		return nil, fmt.Errorf("%w: EOG channel %q", eeg.ErrUnknownChannel, ch)
	}
	y, err := bandLimit(rec.Row(idx), rec.Rate())
	if err != nil {
		return nil, err
	}
	if len(y) < 3 {
		return nil, nil
	}

	lo, hi := y[0], y[0]
	for _, v := range y {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.Abs(lo) > math.Abs(hi) {
		for i := range y {
			y[i] = -y[i]
		}
	}
	thresh := (hi - lo) / 4

	var peaks []int
	for i := 1; i < len(y)-1; i++ {
		if y[i] >= thresh && y[i] >= y[i-1] && y[i] > y[i+1] {
			peaks = append(peaks, i)
		}
	}
	sort.SliceStable(peaks, func(a, b int) bool { return y[peaks[a]] > y[peaks[b]] })

	spacing := int(blinkSpacing * rec.Rate())
	var kept []int
	for _, p := range peaks {
		clear := true
		for _, k := range kept {
			if abs(p-k) < spacing {
				clear = false
				break
			}
		}
		if clear {
			kept = append(kept, p)
		}
	}
	sort.Ints(kept)

	events := make([]epochs.Event, len(kept))
	for i, p := range kept {
		events[i] = epochs.Event{Sample: p, Code: 998}
	}
	return events, nil
}

// CreateEOGEpochs cuts [EOGWindow] epochs around the blinks on channel ch,
// without baseline correction. Blinks too close to the edges are dropped.
func CreateEOGEpochs(rec *eeg.Recording, ch string) (*epochs.Epochs, error) {
	events, err := FindEOGEvents(rec, ch)
	if err != nil {
		return nil, err
	}
	ep, err := epochs.Cut(rec, events, EOGWindow, epochs.WithBaseline(false), epochs.WithDropOutOfBounds())
	if err != nil {
		return nil, err
	}
	ep.Label = "blink"
	return ep, nil
}

// FindBadsEOG scores every component by the Pearson correlation of its
// time course with channel ch over the EOG epochs, both band-limited to
// [EOGBand]. Components whose score is an outlier (|z| > threshold, two
// rounds) are returned ranked by decreasing |score|, together with the
// scores of all components.
func (ic *ICA) FindBadsEOG(ep *epochs.Epochs, ch string, threshold float64) ([]int, []float64, error) {
	if ic == nil || ic.unmixing == nil {
		return nil, nil, eeg.ErrNotFitted
	}
	if ep.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: no EOG epochs", eeg.ErrInvalidParameter)
	}
	target, ok := ep.ChannelIndex(ch)
	if !ok {
		return nil, nil, fmt.Errorf("%w: EOG channel %q", eeg.ErrUnknownChannel, ch)
	}
	picks, err := ic.picks(ep.Channels)
	if err != nil {
		return nil, nil, err
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	n := ic.NComponents()
	srcs := make([][]float64, n)
	for _, win := range ep.Data {
		s := ic.sources(win, picks)
		for i := range srcs {
			srcs[i] = append(srcs[i], s.RawRowView(i)...)
		}
	}
	ref, err := bandLimit(ep.Concat(target), ep.Rate)
	if err != nil {
		return nil, nil, err
	}

	scores := make([]float64, n)
	for i, s := range srcs {
		f, err := bandLimit(s, ep.Rate)
		if err != nil {
			return nil, nil, err
		}
		scores[i] = tstats.Pearson(f, ref)
	}

	bad := findOutliers(scores, threshold, 2)
	sort.SliceStable(bad, func(a, b int) bool { return math.Abs(scores[bad[a]]) > math.Abs(scores[bad[b]]) })
	return bad, scores, nil
}

// findOutliers flags values whose |z| exceeds threshold, recomputing the
// z-scores over the unflagged values for up to rounds iterations.
func findOutliers(x []float64, threshold float64, rounds int) []int {
	flagged := make([]bool, len(x))
	for r := 0; r < rounds; r++ {
		var rest []float64
		var idx []int
		for i, v := range x {
			if !flagged[i] {
				rest = append(rest, v)
				idx = append(idx, i)
			}
		}
		z := tstats.ZScores(rest)
		found := false
		for k, zv := range z {
			if math.Abs(zv) > threshold {
				flagged[idx[k]] = true
				found = true
			}
		}
		if !found {
			break
		}
	}
	var out []int
	for i, f := range flagged {
		if f {
			out = append(out, i)
		}
	}
	return out
}

func bandLimit(x []float64, rate float64) ([]float64, error) {
	d, err := filter.NewDesign(EOGBand, rate, filter.MethodIIR, 4)
	if err != nil {
		return nil, err
	}
	return d.Run(x)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
