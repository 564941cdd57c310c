// Package fir designs windowed-sinc FIR filters and applies them with
// zero-phase FFT overlap-add convolution.
//
// Coefficients are produced by [Lowpass], [Highpass] and [Bandpass] using
// the window method. [ZeroPhase] compensates the linear-phase delay of an
// odd-length kernel so the output is aligned with the input.
package fir
