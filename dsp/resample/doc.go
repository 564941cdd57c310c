// Package resample converts sampled signals between rational rates with a
// windowed-sinc polyphase filter.
//
// Conversion works on whole signals. The anti-aliasing filter is symmetric
// and its delay is removed, so output sample m lines up with input time
// m*down/up. Both ends are extended by odd reflection before filtering.
//
//	mode             zero crossings   cutoff   kaiser beta
//	QualityFast      10               0.90     5.0
//	QualityBalanced  16               0.94     7.0
//	QualityBest      32               0.97     9.0
package resample
