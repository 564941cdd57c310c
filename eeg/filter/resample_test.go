package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/internal/testutil"
)

func TestResample(t *testing.T) {
	rec := mixedRecording(t)
	rec = rec.WithFilterBand(0.1, 70)

	out, err := Resample(rec, 80)
	require.NoError(t, err)
	assert.Equal(t, 80.0, out.Rate())
	assert.Equal(t, rec.NumSamples()/2, out.NumSamples())
	assert.Equal(t, rec.Annotations(), out.Annotations())
	assert.Equal(t, rate, rec.Rate(), "source must not change")

	// 60 Hz hum lies above the new Nyquist frequency and is removed.
	want := testutil.Add(
		testutil.DeterministicSine(10, 80, 1, out.NumSamples()),
		testutil.DC(5, out.NumSamples()),
	)
	d, err := testutil.MaxAbsDiff(middle(out.Row(0)), middle(want))
	require.NoError(t, err)
	assert.Less(t, d, 0.01)

	stim := rec.Row(2)
	for m, v := range out.Row(2) {
		require.Equal(t, stim[2*m], v)
	}

	hp, lp := out.FilterBand()
	assert.Equal(t, 0.1, hp)
	assert.Equal(t, 40.0, lp)
}

func TestResampleSameRateAndInvalid(t *testing.T) {
	rec := mixedRecording(t)

	same, err := Resample(rec, rate)
	require.NoError(t, err)
	assert.Equal(t, rec.Row(0), same.Row(0))

	_, err = Resample(rec, 0)
	require.ErrorIs(t, err, eeg.ErrInvalidParameter)
	_, err = Resample(rec, 0.001)
	require.ErrorIs(t, err, eeg.ErrInvalidParameter)
}
