// Package spectrum estimates power spectra of real signals.
//
// [Welch] averages periodograms of windowed segments computed with
// algo-fft. [Goertzel] evaluates a single bin and is used to measure line
// interference without a full transform.
package spectrum
