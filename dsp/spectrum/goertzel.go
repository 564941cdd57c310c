package spectrum

import (
	"fmt"
	"math"
)

// Goertzel evaluates a single DFT bin of a sample stream.
//
// Power evaluates the component over all samples processed since the last
// Reset. Non-integer cycle counts leak into the estimate.
type Goertzel struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	s0, s1     float64
	n          int
}

// NewGoertzel creates an analyzer for frequency, which must lie in
// [0, sampleRate/2].
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, sampleRate)
	}
	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	return &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
		coeff:      2 * math.Cos(2*math.Pi*frequency/sampleRate),
	}, nil
}

// Reset clears the internal state.
func (g *Goertzel) Reset() {
	g.s0, g.s1, g.n = 0, 0, 0
}

// ProcessBlock updates the internal state with a block of samples.
func (g *Goertzel) ProcessBlock(input []float64) {
	s0, s1 := g.s0, g.s1
	coeff := g.coeff
	for _, x := range input {
		s := x + coeff*s0 - s1
		s1 = s0
		s0 = s
	}
	g.s0, g.s1 = s0, s1
	g.n += len(input)
}

// Power returns |X[k]|^2 for the processed block.
func (g *Goertzel) Power() float64 {
	return g.s0*g.s0 + g.s1*g.s1 - g.coeff*g.s0*g.s1
}

// Amplitude returns the peak amplitude of a sinusoid at the target
// frequency that would produce the observed power.
func (g *Goertzel) Amplitude() float64 {
	p := g.Power()
	if p <= 0 || g.n == 0 {
		return 0
	}
	return 2 * math.Sqrt(p) / float64(g.n)
}

// LineAmplitude returns the amplitude of the frequency component of x,
// for example residual mains interference after filtering.
func LineAmplitude(x []float64, frequency, sampleRate float64) (float64, error) {
	g, err := NewGoertzel(frequency, sampleRate)
	if err != nil {
		return 0, err
	}
	g.ProcessBlock(x)
	return g.Amplitude(), nil
}
