package fir

import "fmt"

// ZeroPhase applies an odd-length linear-phase kernel to x without delay.
//
// The input is reflect-padded by min(len(kernel)-1, len(x)-1) samples on
// each side, convolved, and the (len(kernel)-1)/2 group delay is removed.
// The result has len(x) samples.
func ZeroPhase(oa *OverlapAdd, x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if oa.kernelLen%2 == 0 {
		return nil, fmt.Errorf("%w: %d taps", ErrEvenLength, oa.kernelLen)
	}

	pad := min(oa.kernelLen-1, len(x)-1)
	ext := reflectPad(x, pad)

	full, err := oa.Process(ext)
	if err != nil {
		return nil, err
	}

	delay := (oa.kernelLen - 1) / 2
	out := make([]float64, len(x))
	copy(out, full[pad+delay:pad+delay+len(x)])
	return out, nil
}

// reflectPad mirrors x about its end samples without repeating them.
func reflectPad(x []float64, pad int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		ext[i] = x[pad-i]
		ext[pad+n+i] = x[n-2-i]
	}
	copy(ext[pad:], x)
	return ext
}
