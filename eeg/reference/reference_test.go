package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eeg/eeg"
)

func recording(t *testing.T) *eeg.Recording {
	t.Helper()
	rec, err := eeg.NewRecording(
		[]string{"A", "B", "C", "EOG"},
		10,
		[][]float64{{1, 2}, {3, 4}, {100, 100}, {7, 7}},
		eeg.WithKinds([]eeg.Kind{eeg.KindEEG, eeg.KindEEG, eeg.KindEEG, eeg.KindEOG}),
	)
	require.NoError(t, err)
	rec, err = rec.WithBads("C")
	require.NoError(t, err)
	return rec
}

func TestAverageExcludesBadsFromReference(t *testing.T) {
	rec := recording(t)
	out, err := Average(rec)
	require.NoError(t, err)

	assert.Equal(t, []float64{-1, -1}, out.Row(0))
	assert.Equal(t, []float64{1, 1}, out.Row(1))
	assert.Equal(t, []float64{98, 97}, out.Row(2))
	assert.Equal(t, []float64{7, 7}, out.Row(3))
	assert.Equal(t, []float64{1, 2}, rec.Row(0))
	assert.Equal(t, []string{"C"}, out.Bads())
}

func TestAverageNeedsGoodChannels(t *testing.T) {
	rec, err := recording(t).WithBads("A", "B", "C")
	require.NoError(t, err)
	_, err = Average(rec)
	require.ErrorIs(t, err, eeg.ErrInvalidParameter)
}

func TestChannel(t *testing.T) {
	out, err := Channel(recording(t), "A")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, out.Row(0))
	assert.Equal(t, []float64{2, 2}, out.Row(1))

	_, err = Channel(recording(t), "Z")
	require.ErrorIs(t, err, eeg.ErrUnknownChannel)
}
