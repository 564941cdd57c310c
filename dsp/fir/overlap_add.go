package fir

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-eeg/dsp/core"
)

// OverlapAdd implements FFT-based convolution using the overlap-add method.
// A plan is bound to one kernel and can be reused across channels.
type OverlapAdd struct {
	kernelFFT []complex128
	kernelLen int
	blockSize int
	fftSize   int

	plan *algofft.Plan[complex128]

	work []complex128
}

// NewOverlapAdd creates an overlap-add convolver for kernel.
// If blockSize is not positive a size is chosen from the kernel length.
func NewOverlapAdd(kernel []float64, blockSize int) (*OverlapAdd, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	kernelLen := len(kernel)
	if blockSize <= 0 {
		blockSize = core.NextPowerOf2(kernelLen)
		if blockSize < 256 {
			blockSize = 256
		}
	}
	fftSize := core.NextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fir: failed to create FFT plan: %w", err)
	}

	oa := &OverlapAdd{
		kernelFFT: make([]complex128, fftSize),
		kernelLen: kernelLen,
		blockSize: blockSize,
		fftSize:   fftSize,
		plan:      plan,
		work:      make([]complex128, fftSize),
	}

	padded := make([]complex128, fftSize)
	for i, v := range kernel {
		padded[i] = complex(v, 0)
	}
	if err := plan.Forward(oa.kernelFFT, padded); err != nil {
		return nil, fmt.Errorf("fir: failed to compute kernel FFT: %w", err)
	}

	return oa, nil
}

// FFTSize returns the FFT size used internally.
func (oa *OverlapAdd) FFTSize() int { return oa.fftSize }

// KernelLen returns the kernel length.
func (oa *OverlapAdd) KernelLen() int { return oa.kernelLen }

// Process returns the full linear convolution of input with the kernel.
// It is not safe for concurrent use.
func (oa *OverlapAdd) Process(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}

	outputLen := len(input) + oa.kernelLen - 1
	output := make([]float64, outputLen)

	for start := 0; start < len(input); start += oa.blockSize {
		end := min(start+oa.blockSize, len(input))
		blockLen := end - start

		for i := range oa.work {
			oa.work[i] = 0
		}
		for i := 0; i < blockLen; i++ {
			oa.work[i] = complex(input[start+i], 0)
		}

		if err := oa.plan.Forward(oa.work, oa.work); err != nil {
			return nil, fmt.Errorf("fir: forward FFT failed: %w", err)
		}
		for i := range oa.work {
			oa.work[i] *= oa.kernelFFT[i]
		}
		if err := oa.plan.Inverse(oa.work, oa.work); err != nil {
			return nil, fmt.Errorf("fir: inverse FFT failed: %w", err)
		}

		resultLen := blockLen + oa.kernelLen - 1
		for i := 0; i < resultLen && start+i < outputLen; i++ {
			output[start+i] += real(oa.work[i])
		}
	}

	return output, nil
}
