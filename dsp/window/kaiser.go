package window

import "math"

// Kaiser returns a symmetric Kaiser window of the given length. Larger beta
// trades main-lobe width for side-lobe attenuation; beta 0 is rectangular.
func Kaiser(length int, beta float64) []float64 {
	if length <= 0 {
		return nil
	}

	out := make([]float64, length)
	if length == 1 || beta == 0 {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	norm := besselI0(beta)
	for i := range out {
		t := 2*float64(i)/float64(length-1) - 1
		out[i] = besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / norm
	}

	return out
}

// besselI0 evaluates the zeroth-order modified Bessel function of the first
// kind by its power series.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0

	x2 := x * x / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
