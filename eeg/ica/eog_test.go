package ica

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/internal/testutil"
	tstats "github.com/cwbudde/algo-eeg/stats/time"
)

func blinkRecording(t *testing.T) (*eeg.Recording, []float64, []int) {
	t.Helper()
	const n = 6000
	blink, centers := blinks(n, 1.5, 2)
	sources := [][]float64{blink}
	for k := 0; k < 19; k++ {
		sources = append(sources, testutil.DeterministicNoise(int64(k+1), 1, n))
	}
	eog := testutil.Add(blink, testutil.DeterministicNoise(999, 0.01, n))
	return mix(t, sources, 20, 11, eog), blink, centers
}

func TestFindEOGEvents(t *testing.T) {
	rec, _, centers := blinkRecording(t)
	events, err := FindEOGEvents(rec, "EOG")
	require.NoError(t, err)
	require.Len(t, events, len(centers))
	for i, ev := range events {
		assert.InDelta(t, centers[i], ev.Sample, 2)
		assert.Equal(t, 998, ev.Code)
	}

	_, err = FindEOGEvents(rec, "VEOG")
	require.ErrorIs(t, err, eeg.ErrUnknownChannel)
}

func TestCreateEOGEpochs(t *testing.T) {
	rec, _, centers := blinkRecording(t)
	ep, err := CreateEOGEpochs(rec, "EOG")
	require.NoError(t, err)
	assert.Equal(t, len(centers), ep.Len()+len(ep.Dropped))
	assert.Equal(t, 101, ep.NumSamples())
	assert.Equal(t, "blink", ep.Label)
}

func TestFindBadsEOG(t *testing.T) {
	rec, blink, _ := blinkRecording(t)
	ic, err := Fit(rec, Config{NComponents: 20, Seed: 97})
	require.NoError(t, err)

	ep, err := CreateEOGEpochs(rec, "EOG")
	require.NoError(t, err)
	bads, scores, err := ic.FindBadsEOG(ep, "EOG", DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, scores, 20)
	require.NotEmpty(t, bads)
	assert.Greater(t, math.Abs(scores[bads[0]]), 0.9)
	for i := 1; i < len(bads); i++ {
		assert.GreaterOrEqual(t, math.Abs(scores[bads[i-1]]), math.Abs(scores[bads[i]]))
	}

	comps, err := ic.Sources(rec)
	require.NoError(t, err)
	assert.Greater(t, math.Abs(tstats.Pearson(comps[bads[0]], blink)), 0.9)

	require.NoError(t, ic.SetExclude(bads...))
	clean, err := ic.Apply(rec)
	require.NoError(t, err)
	for c := 0; c < 20; c++ {
		assert.Less(t, math.Abs(tstats.Pearson(clean.Row(c), blink)), 0.1, "channel %d", c)
	}

	_, _, err = ic.FindBadsEOG(ep, "VEOG", DefaultThreshold)
	require.ErrorIs(t, err, eeg.ErrUnknownChannel)
}

func TestFindOutliers(t *testing.T) {
	x := []float64{0.01, -0.02, 0.03, 0.0, 0.01, -0.01, 0.02, 0.0, -0.03, 0.01, 0.95, 0.02, -0.01, 0.0, 0.01}
	assert.Equal(t, []int{10}, findOutliers(x, 3, 2))
	assert.Empty(t, findOutliers([]float64{1, 2, 3}, 3, 2))
	assert.Empty(t, findOutliers(nil, 3, 2))
}
