// Package ica removes artifacts from EEG with independent component
// analysis.
//
// [Fit] whitens the good EEG channels with PCA and runs parallel FastICA
// with a log-cosh contrast and symmetric decorrelation. The initial
// unmixing matrix is drawn from a seeded generator, so equal input and seed
// give identical components. [ICA.Apply] subtracts the back-projection of
// the excluded components and keeps the part of the data outside the
// retained PCA subspace.
package ica
