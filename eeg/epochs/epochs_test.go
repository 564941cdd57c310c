package epochs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eeg/eeg"
)

func rampRecording(t *testing.T, rate float64, n int, ann []eeg.Annotation) *eeg.Recording {
	t.Helper()
	a := make([]float64, n)
	b := make([]float64, n)
	for i := range a {
		a[i] = float64(i)
		b[i] = -2 * float64(i)
	}
	rec, err := eeg.NewRecording([]string{"Cz", "Pz"}, rate, [][]float64{a, b}, eeg.WithAnnotations(ann))
	require.NoError(t, err)
	return rec
}

func TestEventsFromAnnotations(t *testing.T) {
	ann := []eeg.Annotation{
		{Onset: 1.0, Label: "Rest"},
		{Onset: 2.004, Label: "Encoding"},
		{Onset: 3.0, Label: "Rest"},
		{Onset: 4.0, Label: "Recall"},
	}
	rec := rampRecording(t, 250, 2000, ann)

	events, m := EventsFromAnnotations(rec)
	assert.Equal(t, []string{"Rest", "Encoding", "Recall"}, m.Labels())
	assert.Equal(t, []Event{{250, 1}, {501, 2}, {750, 1}, {1000, 3}}, events)

	code, ok := m.Code("Encoding")
	assert.True(t, ok)
	assert.Equal(t, 2, code)
	label, ok := m.Label(3)
	assert.True(t, ok)
	assert.Equal(t, "Recall", label)
	_, ok = m.Label(0)
	assert.False(t, ok)

	again, m2 := EventsFromAnnotations(rec)
	assert.Equal(t, events, again)
	assert.Equal(t, m, m2)
}

func TestWindowBounds(t *testing.T) {
	for _, rate := range []float64{100, 128, 160, 250, 256, 512, 1000} {
		before, after := DefaultWindow.Bounds(rate)
		assert.Equal(t, int(math.Floor(0.2*rate+1e-9)), before, rate)
		assert.Equal(t, int(math.Floor(0.8*rate+1e-9)), after, rate)
	}
	before, after := DefaultWindow.Bounds(160)
	assert.Equal(t, 32, before)
	assert.Equal(t, 128, after)
}

func TestExtractSpan(t *testing.T) {
	const rate = 160.0
	ann := []eeg.Annotation{{Onset: 1, Label: "Encoding"}, {Onset: 2, Label: "Other"}, {Onset: 3, Label: "Encoding"}}
	rec := rampRecording(t, rate, 800, ann)
	events, m := EventsFromAnnotations(rec)

	ep, err := Extract(rec, events, m, "Encoding", DefaultWindow, WithBaseline(false))
	require.NoError(t, err)
	require.Equal(t, 2, ep.Len())
	assert.Equal(t, 32+1+128, ep.NumSamples())
	assert.Equal(t, "Encoding", ep.Label)
	assert.InDelta(t, -0.2, ep.TMin(), 1e-12)
	assert.Equal(t, float64(160-32), ep.Data[0][0][0])
	assert.Equal(t, float64(160+128), ep.Data[0][0][ep.NumSamples()-1])
	assert.Equal(t, float64(480-32), ep.Data[1][0][0])

	times := ep.Times()
	assert.InDelta(t, 0, times[32], 1e-12)
	assert.InDelta(t, 0.8, times[len(times)-1], 1e-12)
}

func TestExtractBaseline(t *testing.T) {
	rec := rampRecording(t, 100, 500, []eeg.Annotation{{Onset: 2, Label: "Encoding"}})
	events, m := EventsFromAnnotations(rec)
	ep, err := Extract(rec, events, m, "Encoding", DefaultWindow)
	require.NoError(t, err)

	// Samples 180..200 average to 190 on the ramp.
	assert.InDelta(t, -10, ep.Data[0][0][0], 1e-9)
	assert.InDelta(t, 10, ep.Data[0][0][20], 1e-9)
	assert.InDelta(t, 20, ep.Data[0][1][0], 1e-9)
}

func TestExtractBaselineSkipsStim(t *testing.T) {
	n := 500
	ramp := make([]float64, n)
	trig := make([]float64, n)
	for i := range ramp {
		ramp[i] = float64(i)
	}
	trig[200] = 5
	rec, err := eeg.NewRecording([]string{"Cz", "STI"}, 100, [][]float64{ramp, trig},
		eeg.WithKinds([]eeg.Kind{eeg.KindEEG, eeg.KindStim}),
		eeg.WithAnnotations([]eeg.Annotation{{Onset: 2, Label: "Encoding"}}))
	require.NoError(t, err)

	events, m := EventsFromAnnotations(rec)
	ep, err := Extract(rec, events, m, "Encoding", DefaultWindow)
	require.NoError(t, err)

	assert.InDelta(t, -10, ep.Data[0][0][0], 1e-9)
	stim := ep.Data[0][1]
	assert.InDelta(t, 0, stim[0], 0)
	assert.InDelta(t, 5, stim[20], 0)
}

func TestExtractOutOfBounds(t *testing.T) {
	ann := []eeg.Annotation{{Onset: 0.1, Label: "Encoding"}, {Onset: 2, Label: "Encoding"}, {Onset: 4.5, Label: "Encoding"}}
	rec := rampRecording(t, 100, 500, ann)
	events, m := EventsFromAnnotations(rec)

	_, err := Extract(rec, events, m, "Encoding", DefaultWindow)
	require.ErrorIs(t, err, eeg.ErrOutOfBounds)

	ep, err := Extract(rec, events, m, "Encoding", DefaultWindow, WithDropOutOfBounds())
	require.NoError(t, err)
	assert.Equal(t, 1, ep.Len())
	assert.Equal(t, []Event{{10, 1}, {450, 1}}, ep.Dropped)
}

func TestExtractLastValidSample(t *testing.T) {
	// Event at 420 needs samples 400..500; 500 is past the end.
	rec := rampRecording(t, 100, 500, []eeg.Annotation{{Onset: 4.2, Label: "E"}, {Onset: 4.19, Label: "E"}})
	events, m := EventsFromAnnotations(rec)
	_, err := Extract(rec, events[:1], m, "E", DefaultWindow)
	require.ErrorIs(t, err, eeg.ErrOutOfBounds)
	ep, err := Extract(rec, events[1:], m, "E", DefaultWindow)
	require.NoError(t, err)
	assert.Equal(t, 1, ep.Len())
}

func TestExtractMissingCondition(t *testing.T) {
	rec := rampRecording(t, 100, 500, []eeg.Annotation{{Onset: 2, Label: "Rest"}})
	before := rec.Clone()
	events, m := EventsFromAnnotations(rec)
	eventsBefore := append([]Event(nil), events...)

	ep, err := Extract(rec, events, m, "Encoding", DefaultWindow)
	require.ErrorIs(t, err, eeg.ErrMissingCondition)
	assert.Nil(t, ep)
	assert.Equal(t, before.Data(), rec.Data())
	assert.Equal(t, eventsBefore, events)
	assert.Equal(t, []string{"Rest"}, m.Labels())
}

func TestExtractReject(t *testing.T) {
	rec := rampRecording(t, 100, 500, []eeg.Annotation{{Onset: 2, Label: "E"}})
	events, m := EventsFromAnnotations(rec)
	ep, err := Extract(rec, events, m, "E", DefaultWindow, WithRejectPeakToPeak(50))
	require.NoError(t, err)
	assert.Equal(t, 0, ep.Len())
	assert.Len(t, ep.Dropped, 1)
}

func TestInvalidWindow(t *testing.T) {
	rec := rampRecording(t, 100, 500, []eeg.Annotation{{Onset: 2, Label: "E"}})
	events, m := EventsFromAnnotations(rec)
	_, err := Extract(rec, events, m, "E", Window{TMin: 0.1, TMax: 0.5})
	require.ErrorIs(t, err, eeg.ErrInvalidParameter)
}

func TestAverage(t *testing.T) {
	ann := []eeg.Annotation{{Onset: 1, Label: "E"}, {Onset: 3, Label: "E"}}
	rec := rampRecording(t, 100, 500, ann)
	events, m := EventsFromAnnotations(rec)
	ep, err := Extract(rec, events, m, "E", DefaultWindow, WithBaseline(false))
	require.NoError(t, err)

	ev, err := Average(ep)
	require.NoError(t, err)
	assert.Equal(t, 2, ev.NAve)
	assert.Equal(t, 200.0-20, ev.Data[0][0])
	assert.InDelta(t, 0, ev.Times()[20], 1e-12)

	ch, lat, amp := ev.Peak()
	assert.Equal(t, "Pz", ch)
	assert.InDelta(t, 0.8, lat, 1e-12)
	assert.Equal(t, -2*280.0, amp)

	_, err = Average(&Epochs{})
	require.ErrorIs(t, err, eeg.ErrInvalidParameter)
}
