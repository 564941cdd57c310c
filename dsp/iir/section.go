package iir

// Coefficients holds the transfer function of one second-order section.
// a0 is normalised to 1 and not stored.
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// DCGain returns H(z=1), the section gain for a constant input.
func (c Coefficients) DCGain() float64 {
	den := 1 + c.A1 + c.A2
	if den == 0 {
		return 0
	}

	return (c.B0 + c.B1 + c.B2) / den
}

// FirstOrder reports whether the section degenerates to first order.
func (c Coefficients) FirstOrder() bool {
	return c.B2 == 0 && c.A2 == 0
}

// Section is a single biquad with coefficients and delay-line state.
type Section struct {
	Coefficients

	d0, d1 float64
}

// ProcessSample filters one input sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters buf in-place, two samples per iteration.
func (s *Section) ProcessBlock(buf []float64) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2
	d0, d1 := s.d0, s.d1

	i := 0
	n := len(buf)
	for ; i+1 < n; i += 2 {
		x0 := buf[i]
		y0 := b0*x0 + d0
		d0n := b1*x0 - a1*y0 + d1
		d1n := b2*x0 - a2*y0

		x1 := buf[i+1]
		y1 := b0*x1 + d0n
		d0 = b1*x1 - a1*y1 + d1n
		d1 = b2*x1 - a2*y1

		buf[i] = y0
		buf[i+1] = y1
	}

	if i < n {
		x := buf[i]
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	s.d0, s.d1 = d0, d1
}

// Reset clears the delay line.
func (s *Section) Reset() {
	s.d0, s.d1 = 0, 0
}

// settle loads the delay line with the state reached after an infinitely
// long constant input x.
func (s *Section) settle(x float64) {
	g := s.DCGain()
	s.d1 = (s.B2 - s.A2*g) * x
	s.d0 = (s.B1-s.A1*g)*x + s.d1
}
