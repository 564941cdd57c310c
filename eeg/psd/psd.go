// Package psd computes per-channel power spectral densities of recordings.
package psd

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-eeg/dsp/core"
	"github.com/cwbudde/algo-eeg/dsp/spectrum"
	"github.com/cwbudde/algo-eeg/eeg"
)

// Config parameterizes [Compute]. A zero FMax means Nyquist.
type Config struct {
	FMin    float64
	FMax    float64
	NFFT    int
	Overlap int
}

// Spectrum holds one density row per channel over a shared frequency axis.
type Spectrum struct {
	Channels []string
	Freqs    []float64
	// Density is in signal units squared per Hz.
	Density [][]float64
}

// Series is a named spectrum, for example the recording before and after
// filtering.
type Series struct {
	Name     string
	Spectrum *Spectrum
}

// Compute estimates Welch densities of the good EEG channels of rec,
// restricted to [FMin, FMax].
func Compute(rec *eeg.Recording, cfg Config) (*Spectrum, error) {
	if cfg.FMax == 0 {
		cfg.FMax = rec.Rate() / 2
	}
	if cfg.FMin < 0 || cfg.FMin >= cfg.FMax {
		return nil, fmt.Errorf("%w: frequency range [%g, %g]", eeg.ErrInvalidParameter, cfg.FMin, cfg.FMax)
	}
	if cfg.NFFT > rec.NumSamples() {
		return nil, fmt.Errorf("%w: n_fft %d exceeds %d samples", eeg.ErrInvalidParameter, cfg.NFFT, rec.NumSamples())
	}
	picks := rec.GoodIndices(eeg.KindEEG)
	if len(picks) == 0 {
		return nil, fmt.Errorf("%w: no good EEG channels", eeg.ErrInvalidParameter)
	}

	est, err := spectrum.NewEstimator(cfg.NFFT, rec.Rate(), spectrum.WithOverlap(cfg.Overlap))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", eeg.ErrInvalidParameter, err)
	}

	all := est.Freqs()
	lo, hi := -1, -1
	for k, f := range all {
		if f >= cfg.FMin && f <= cfg.FMax {
			if lo < 0 {
				lo = k
			}
			hi = k
		}
	}
	if lo < 0 {
		return nil, fmt.Errorf("%w: no bins in [%g, %g] Hz", eeg.ErrInvalidParameter, cfg.FMin, cfg.FMax)
	}

	out := &Spectrum{Freqs: all[lo : hi+1]}
	data := rec.Data()
	for _, ch := range picks {
		p, err := est.PSD(data[ch])
		if err != nil {
			return nil, err
		}
		out.Channels = append(out.Channels, rec.Channel(ch))
		out.Density = append(out.Density, p[lo:hi+1])
	}
	return out, nil
}

// Mean returns the channel-averaged density.
func (s *Spectrum) Mean() []float64 {
	out := make([]float64, len(s.Freqs))
	if len(s.Density) == 0 {
		return out
	}
	for _, row := range s.Density {
		for k, v := range row {
			out[k] += v
		}
	}
	for k := range out {
		out[k] /= float64(len(s.Density))
	}
	return out
}

// DB converts a density row to decibels re 1 unit^2/Hz.
func DB(density []float64) []float64 {
	out := make([]float64, len(density))
	for k, v := range density {
		out[k] = core.LinearPowerToDB(v)
	}
	return out
}

// BandPower integrates the mean density over [lo, hi] Hz with the
// rectangle rule.
func (s *Spectrum) BandPower(lo, hi float64) float64 {
	if len(s.Freqs) < 2 {
		return 0
	}
	df := s.Freqs[1] - s.Freqs[0]
	mean := s.Mean()
	total := 0.0
	for k, f := range s.Freqs {
		if f >= lo && f <= hi {
			total += mean[k] * df
		}
	}
	return total
}

// PeakFrequency returns the frequency of the largest mean density.
func (s *Spectrum) PeakFrequency() float64 {
	mean := s.Mean()
	best := math.Inf(-1)
	freq := 0.0
	for k, v := range mean {
		if v > best {
			best = v
			freq = s.Freqs[k]
		}
	}
	return freq
}
