// Package iir provides second-order-section IIR filters for offline,
// zero-phase processing of recorded signals.
//
// A [Section] runs Direct Form II Transposed. A [Cascade] chains sections for
// higher orders and adds forward-backward filtering ([Cascade.FiltFilt]) with
// odd-extension padding and steady-state initial conditions, so that the
// output has no phase shift and no start-up transient at the record edges.
//
// Designers return coefficient slices: Butterworth low/high-pass cascades and
// RBJ notch sections.
package iir
