// Package filter band-limits recordings.
//
// [Apply] designs a highpass, lowpass or bandpass from a [Band] and runs it
// over the selected channel kinds without phase distortion. The default
// design is a Hamming-windowed FIR with automatic transition bandwidths;
// [MethodIIR] selects forward-backward Butterworth sections instead.
// [Notch] removes narrow line-noise components. [Resample] changes the
// sampling rate with a delay-compensated polyphase filter.
package filter
