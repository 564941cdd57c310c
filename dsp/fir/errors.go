package fir

import "errors"

var (
	// ErrEmptyKernel is returned when a convolution kernel has no taps.
	ErrEmptyKernel = errors.New("fir: empty kernel")
	// ErrEmptyInput is returned when there is nothing to filter.
	ErrEmptyInput = errors.New("fir: empty input")
	// ErrInvalidDesign is returned for cutoff, length or rate values that do
	// not describe a realizable filter.
	ErrInvalidDesign = errors.New("fir: invalid design parameters")
	// ErrEvenLength is returned when a zero-phase or highpass kernel has an
	// even number of taps.
	ErrEvenLength = errors.New("fir: kernel length must be odd")
)
