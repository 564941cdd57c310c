// Package channels manages the bad channel set of a recording and repairs
// bad EEG channels by spherical-spline interpolation.
package channels
