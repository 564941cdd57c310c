// Package eeg defines the in-memory representation of one EEG session.
//
// A [Recording] holds ordered channel names, per-channel kinds and sensor
// positions, a sample matrix, the bad channel set and the annotations of the
// session. Processing stages in the sub-packages take a Recording and return
// a new one; the source is never modified.
package eeg
