package channels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eeg/eeg"
	"github.com/cwbudde/algo-eeg/eeg/montage"
	"github.com/cwbudde/algo-eeg/internal/eegtest"
	tstats "github.com/cwbudde/algo-eeg/stats/time"
)

func threeChannel() *eeg.Recording {
	return eegtest.Recording(eegtest.Params{Channels: []string{"Fp1", "Fz", "Cz"}, Rate: 100, Seconds: 1})
}

func TestMarkBadPresentCandidate(t *testing.T) {
	rec := threeChannel()
	out, absent := MarkBad(rec, "Fp1")
	assert.Equal(t, []string{"Fp1"}, out.Bads())
	assert.Empty(t, absent)
	assert.Empty(t, rec.Bads(), "source must stay untouched")
}

func TestMarkBadIsIntersection(t *testing.T) {
	rec := threeChannel()
	tests := []struct {
		name       string
		candidates []string
		wantBads   []string
		wantAbsent []string
	}{
		{"none", nil, nil, nil},
		{"absent only", []string{"Oz"}, nil, []string{"Oz"}},
		{"mixed", []string{"Oz", "Cz", "Fp1"}, []string{"Fp1", "Cz"}, []string{"Oz"}},
		{"reordered", []string{"Fp1", "Cz", "Oz"}, []string{"Fp1", "Cz"}, []string{"Oz"}},
		{"duplicates", []string{"Cz", "Cz", "Oz", "Oz"}, []string{"Cz"}, []string{"Oz"}},
		{"case sensitive", []string{"cz"}, nil, []string{"cz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, absent := MarkBad(rec, tt.candidates...)
			assert.Equal(t, tt.wantBads, out.Bads())
			assert.Equal(t, tt.wantAbsent, absent)
		})
	}
}

func TestMarkBadReplacesExisting(t *testing.T) {
	rec, err := threeChannel().WithBads("Fz")
	require.NoError(t, err)

	out, _ := MarkBad(rec, "Fp1")
	assert.Equal(t, []string{"Fp1"}, out.Bads())
	assert.Equal(t, []string{"Fz"}, rec.Bads(), "source must not change")

	kept, absent := MarkBad(rec, "T9")
	assert.Equal(t, []string{"Fz"}, kept.Bads())
	assert.Equal(t, []string{"T9"}, absent)

	none, _ := MarkBad(rec)
	assert.Equal(t, []string{"Fz"}, none.Bads())
}

var gridChannels = []string{
	"Fp1", "Fp2", "F7", "F3", "Fz", "F4", "F8",
	"FC5", "FC1", "FC2", "FC6", "T7", "C3", "Cz", "C4", "T8",
	"CP5", "CP1", "CP2", "CP6", "P7", "P3", "Pz", "P4", "P8", "O1", "Oz", "O2",
}

// fieldRecording returns a positioned recording whose samples follow a
// smooth scalp field a(t)*x + b(t)*z + c.
func fieldRecording(t *testing.T) *eeg.Recording {
	t.Helper()
	m := montage.Standard1020()
	const n = 200
	data := make([][]float64, len(gridChannels))
	for c, name := range gridChannels {
		p, ok := m.Position(name)
		require.True(t, ok, name)
		row := make([]float64, n)
		for i := range row {
			a := math.Sin(2 * math.Pi * float64(i) / 50)
			b := math.Cos(2 * math.Pi * float64(i) / 80)
			row[i] = (a*p.X+b*p.Z)/0.095 + 0.5
		}
		data[c] = row
	}
	rec, err := eeg.NewRecording(gridChannels, 100, data)
	require.NoError(t, err)
	rec, _, err = montage.Apply(rec, m, montage.OnMissingRaise)
	require.NoError(t, err)
	return rec
}

func TestInterpolateRecoversSmoothField(t *testing.T) {
	rec := fieldRecording(t)
	truth := rec.Row(13)
	bad, _ := MarkBad(rec, "Cz", "C3")
	blanked := bad.Data()
	zeroed := make([][]float64, len(blanked))
	copy(zeroed, blanked)
	zeroed[13] = make([]float64, len(truth))
	bad, err := bad.WithData(zeroed)
	require.NoError(t, err)

	out, err := Interpolate(bad)
	require.NoError(t, err)
	assert.Empty(t, out.Bads())
	assert.Greater(t, tstats.Pearson(out.Row(13), truth), 0.95)
	assert.Equal(t, bad.Row(0), out.Row(0), "good channels are kept")

	kept, err := Interpolate(bad, WithResetBads(false))
	require.NoError(t, err)
	assert.Equal(t, []string{"C3", "Cz"}, kept.Bads())
}

func TestInterpolationMatrixPreservesConstants(t *testing.T) {
	m := montage.Standard1020()
	var from []eeg.Position
	for _, name := range gridChannels[:10] {
		p, _ := m.Position(name)
		from = append(from, eeg.Position{X: p.X / 0.095, Y: p.Y / 0.095, Z: p.Z / 0.095})
	}
	w, err := InterpolationMatrix(from, from[:2])
	require.NoError(t, err)
	r, c := w.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 10, c)
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += w.At(i, j)
		}
		assert.InDelta(t, 1, sum, 1e-6)
	}
}

func TestInterpolateErrors(t *testing.T) {
	rec := threeChannel()
	out, err := Interpolate(rec)
	require.NoError(t, err, "no bads is a no-op")
	assert.Equal(t, rec.Data(), out.Data())

	bad, _ := MarkBad(rec, "Cz")
	_, err = Interpolate(bad)
	require.ErrorIs(t, err, eeg.ErrInvalidParameter, "positions are required")

	all, _ := MarkBad(rec, "Fp1", "Fz", "Cz")
	_, err = Interpolate(all)
	require.ErrorIs(t, err, eeg.ErrInvalidParameter)
}

func TestLegendreKernelDecreasesWithDistance(t *testing.T) {
	assert.Greater(t, legendreG(1), legendreG(0.5))
	assert.Greater(t, legendreG(0.5), legendreG(0))
}
