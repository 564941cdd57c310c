// Package montage assigns sensor positions to recording channels from a
// named electrode template.
package montage

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cwbudde/algo-eeg/eeg"
)

// OnMissing selects how [Apply] treats EEG channels the montage lacks.
type OnMissing int

const (
	// OnMissingRaise fails with eeg.ErrUnknownChannel.
	OnMissingRaise OnMissing = iota
	// OnMissingWarn leaves the channels unpositioned and reports them.
	OnMissingWarn
	// OnMissingIgnore leaves the channels unpositioned silently.
	OnMissingIgnore
)

// ParseOnMissing resolves "raise", "warn" or "ignore".
func ParseOnMissing(s string) (OnMissing, error) {
	switch strings.ToLower(s) {
	case "raise":
		return OnMissingRaise, nil
	case "warn", "":
		return OnMissingWarn, nil
	case "ignore":
		return OnMissingIgnore, nil
	}
	return OnMissingRaise, fmt.Errorf("%w: on-missing policy %q", eeg.ErrInvalidParameter, s)
}

// Montage is a named set of electrode positions.
type Montage struct {
	name      string
	names     []string
	positions map[string]eeg.Position
}

// New builds a montage from positions keyed by electrode label.
func New(name string, positions map[string]eeg.Position) *Montage {
	m := &Montage{name: name, positions: make(map[string]eeg.Position, len(positions))}
	for label, p := range positions {
		m.names = append(m.names, label)
		m.positions[Normalize(label)] = p
	}
	slices.Sort(m.names)
	return m
}

// Name returns the template name.
func (m *Montage) Name() string { return m.name }

// Names returns the electrode labels in sorted order.
func (m *Montage) Names() []string { return slices.Clone(m.names) }

// Position looks up an electrode. Matching ignores case, surrounding space
// and trailing dots.
func (m *Montage) Position(label string) (eeg.Position, bool) {
	p, ok := m.positions[Normalize(label)]
	return p, ok
}

// Normalize returns the lookup key for a channel label.
func Normalize(label string) string {
	return strings.ToUpper(strings.TrimRight(strings.TrimSpace(label), "."))
}

// Apply returns a copy of rec with positions for every EEG channel found in
// m. Channels of other kinds are left untouched. The second result lists
// unmatched EEG channels under OnMissingWarn.
func Apply(rec *eeg.Recording, m *Montage, onMissing OnMissing) (*eeg.Recording, []string, error) {
	pos := make(map[string]eeg.Position)
	var missing []string
	for _, i := range rec.PickKind(eeg.KindEEG) {
		name := rec.Channel(i)
		p, ok := m.Position(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		pos[name] = p
	}

	if len(missing) > 0 {
		switch onMissing {
		case OnMissingRaise:
			return nil, nil, fmt.Errorf("%w: %s not in montage %s", eeg.ErrUnknownChannel, strings.Join(missing, ", "), m.name)
		case OnMissingIgnore:
			missing = nil
		}
	}

	out, err := rec.WithPositions(pos)
	if err != nil {
		return nil, nil, err
	}
	return out, missing, nil
}
