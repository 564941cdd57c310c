package epochs

import (
	"math"
	"slices"

	"github.com/cwbudde/algo-eeg/eeg"
)

// Event is an annotation translated to a sample index and a numeric code.
type Event struct {
	Sample int
	Code   int
}

// EventMap maps annotation labels to event codes.
type EventMap struct {
	labels []string
	codes  map[string]int
}

// Code looks up the code of label.
func (m EventMap) Code(label string) (int, bool) {
	c, ok := m.codes[label]
	return c, ok
}

// Label returns the label of code.
func (m EventMap) Label(code int) (string, bool) {
	if code < 1 || code > len(m.labels) {
		return "", false
	}
	return m.labels[code-1], true
}

// Labels returns the labels in code order.
func (m EventMap) Labels() []string { return slices.Clone(m.labels) }

// Len returns the number of distinct labels.
func (m EventMap) Len() int { return len(m.labels) }

// NewEventMap assigns codes 1..n to labels in first-seen order.
func NewEventMap(labels []string) EventMap {
	m := EventMap{codes: make(map[string]int)}
	for _, l := range labels {
		if _, ok := m.codes[l]; ok {
			continue
		}
		m.labels = append(m.labels, l)
		m.codes[l] = len(m.labels)
	}
	return m
}

// EventsFromAnnotations returns one event per annotation, at sample
// round(onset*rate), together with the label map.
func EventsFromAnnotations(rec *eeg.Recording) ([]Event, EventMap) {
	ann := rec.Annotations()
	labels := make([]string, len(ann))
	for i, a := range ann {
		labels[i] = a.Label
	}
	m := NewEventMap(labels)

	events := make([]Event, len(ann))
	for i, a := range ann {
		events[i] = Event{
			Sample: int(math.Round(a.Onset * rec.Rate())),
			Code:   m.codes[a.Label],
		}
	}
	return events, m
}

// Select returns the events carrying code.
func Select(events []Event, code int) []Event {
	var out []Event
	for _, e := range events {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}
