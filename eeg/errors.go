package eeg

import "errors"

var (
	// ErrInvalidParameter reports a malformed argument, such as inverted
	// filter bounds or a ragged sample matrix.
	ErrInvalidParameter = errors.New("eeg: invalid parameter")
	// ErrMissingCondition reports that a required event label is absent.
	ErrMissingCondition = errors.New("eeg: missing condition")
	// ErrOutOfBounds reports a window that does not fit inside the recording.
	ErrOutOfBounds = errors.New("eeg: window out of bounds")
	// ErrUnknownChannel reports a channel name that the recording lacks.
	ErrUnknownChannel = errors.New("eeg: unknown channel")
	// ErrNotFitted reports use of a decomposition before fitting.
	ErrNotFitted = errors.New("eeg: decomposition not fitted")
)
