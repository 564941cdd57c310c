package eeg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecording(t *testing.T) *Recording {
	t.Helper()
	rec, err := NewRecording(
		[]string{"Fp1", "Fz", "Cz", "EOG"},
		100,
		[][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {0, 0, 0}},
		WithKinds([]Kind{KindEEG, KindEEG, KindEEG, KindEOG}),
		WithAnnotations([]Annotation{{Onset: 0.01, Label: "Encoding"}}),
		WithStartTime(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)),
	)
	require.NoError(t, err)
	return rec
}

func TestNewRecordingValidation(t *testing.T) {
	tests := []struct {
		name     string
		channels []string
		rate     float64
		data     [][]float64
	}{
		{"zero rate", []string{"A"}, 0, [][]float64{{1}}},
		{"no channels", nil, 100, nil},
		{"row count", []string{"A", "B"}, 100, [][]float64{{1}}},
		{"ragged", []string{"A", "B"}, 100, [][]float64{{1, 2}, {1}}},
		{"duplicate", []string{"A", "A"}, 100, [][]float64{{1}, {1}}},
		{"empty name", []string{""}, 100, [][]float64{{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecording(tt.channels, tt.rate, tt.data)
			require.ErrorIs(t, err, ErrInvalidParameter)
		})
	}

	_, err := NewRecording([]string{"A"}, 1, [][]float64{{1}}, WithKinds([]Kind{KindEEG, KindEOG}))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRecordingAccessors(t *testing.T) {
	rec := newTestRecording(t)
	assert.Equal(t, 4, rec.NumChannels())
	assert.Equal(t, 3, rec.NumSamples())
	assert.InDelta(t, 0.03, rec.Duration(), 1e-12)
	assert.Equal(t, []float64{0, 0.01, 0.02}, rec.Times())
	assert.Equal(t, []int{0, 1, 2}, rec.PickKind(KindEEG))
	assert.Equal(t, []int{3}, rec.PickKind(KindEOG))

	i, ok := rec.ChannelIndex("Cz")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = rec.ChannelIndex("Pz")
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	rec := newTestRecording(t)
	c := rec.Clone()
	c.Data()[0][0] = 99
	assert.Equal(t, 1.0, rec.Data()[0][0])

	chans := rec.Channels()
	chans[0] = "X"
	assert.Equal(t, "Fp1", rec.Channel(0))
}

func TestWithBads(t *testing.T) {
	rec := newTestRecording(t)
	out, err := rec.WithBads("Fz", "Fp1", "Fz")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fp1", "Fz"}, out.Bads())
	assert.Empty(t, rec.Bads())
	assert.Equal(t, []int{2}, out.GoodIndices(KindEEG))

	_, err = rec.WithBads("Oz")
	require.ErrorIs(t, err, ErrUnknownChannel)
}

func TestWithPositions(t *testing.T) {
	rec := newTestRecording(t)
	out, err := rec.WithPositions(map[string]Position{"Cz": {Z: 1}})
	require.NoError(t, err)
	p, ok := out.Position(2)
	assert.True(t, ok)
	assert.Equal(t, 1.0, p.Z)
	_, ok = rec.Position(2)
	assert.False(t, ok)

	_, err = rec.WithPositions(map[string]Position{"Oz": {}})
	require.ErrorIs(t, err, ErrUnknownChannel)
}

func TestWithData(t *testing.T) {
	rec := newTestRecording(t)
	out, err := rec.WithData([][]float64{{1}, {2}, {3}, {4}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumSamples())
	assert.Equal(t, rec.Annotations(), out.Annotations())

	_, err = rec.WithData([][]float64{{1}})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestWithRate(t *testing.T) {
	rec := newTestRecording(t)
	out, err := rec.WithRate(50, [][]float64{{1, 2}, {3, 4}, {5, 6}, {0, 0}})
	require.NoError(t, err)
	assert.Equal(t, 50.0, out.Rate())
	assert.Equal(t, 100.0, rec.Rate())
	assert.Equal(t, 2, out.NumSamples())
	assert.Equal(t, rec.Annotations(), out.Annotations())

	_, err = rec.WithRate(0, rec.Data())
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestKinds(t *testing.T) {
	assert.Equal(t, KindEOG, InferKind("EOG left"))
	assert.Equal(t, KindStim, InferKind("STI 014"))
	assert.Equal(t, KindStim, InferKind("Status"))
	assert.Equal(t, KindMisc, InferKind("ECG"))
	assert.Equal(t, KindEEG, InferKind("Fp1"))

	for _, k := range []Kind{KindEEG, KindEOG, KindStim, KindMisc} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("meg")
	require.ErrorIs(t, err, ErrInvalidParameter)
}
