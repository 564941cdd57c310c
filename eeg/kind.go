package eeg

import (
	"fmt"
	"strings"
)

// Kind classifies a channel by the signal it carries.
type Kind int

const (
	KindEEG Kind = iota
	KindEOG
	KindStim
	KindMisc
)

func (k Kind) String() string {
	switch k {
	case KindEEG:
		return "eeg"
	case KindEOG:
		return "eog"
	case KindStim:
		return "stim"
	default:
		return "misc"
	}
}

// ParseKind resolves a kind name as produced by [Kind.String].
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eeg":
		return KindEEG, nil
	case "eog":
		return KindEOG, nil
	case "stim":
		return KindStim, nil
	case "misc":
		return KindMisc, nil
	}
	return KindMisc, fmt.Errorf("%w: channel kind %q", ErrInvalidParameter, s)
}

// InferKind guesses the kind of a channel from its label.
func InferKind(label string) Kind {
	l := strings.ToUpper(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(l, "EOG"), strings.HasPrefix(l, "VEOG"), strings.HasPrefix(l, "HEOG"):
		return KindEOG
	case strings.HasPrefix(l, "STI"), l == "STATUS", l == "TRIGGER":
		return KindStim
	case strings.HasPrefix(l, "ECG"), strings.HasPrefix(l, "EMG"):
		return KindMisc
	}
	return KindEEG
}
