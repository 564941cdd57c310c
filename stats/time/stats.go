// Package time computes time-domain statistics of sampled channels.
package time

import "math"

// Stats holds per-channel amplitude statistics.
type Stats struct {
	Length     int
	Mean       float64
	Std        float64 // population standard deviation
	RMS        float64
	Min        float64
	Max        float64
	PeakToPeak float64
	Skewness   float64
	Kurtosis   float64 // excess kurtosis
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm for the higher-order moments.
func Calculate(signal []float64) Stats {
	n := len(signal)
	if n == 0 {
		return Stats{}
	}

	var (
		mean, m2, m3, m4 float64
		sumSq            float64
		maxVal           = signal[0]
		minVal           = signal[0]
	)
	for i, x := range signal {
		mean, m2, m3, m4 = welford(i, x, mean, m2, m3, m4)
		sumSq += x * x
		maxVal = math.Max(maxVal, x)
		minVal = math.Min(minVal, x)
	}

	nf := float64(n)
	variance := m2 / nf
	skewness, kurtosis := shape(nf, variance, m3, m4)

	return Stats{
		Length:     n,
		Mean:       mean,
		Std:        math.Sqrt(variance),
		RMS:        math.Sqrt(sumSq / nf),
		Min:        minVal,
		Max:        maxVal,
		PeakToPeak: maxVal - minVal,
		Skewness:   skewness,
		Kurtosis:   kurtosis,
	}
}

// Moments returns the mean, population variance, skewness, and excess
// kurtosis of the signal.
func Moments(signal []float64) (mean, variance, skewness, kurtosis float64) {
	n := len(signal)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var m2, m3, m4 float64
	for i, x := range signal {
		mean, m2, m3, m4 = welford(i, x, mean, m2, m3, m4)
	}

	nf := float64(n)
	variance = m2 / nf
	skewness, kurtosis = shape(nf, variance, m3, m4)
	return mean, variance, skewness, kurtosis
}

// welford folds sample i into the running central moments. M4 must be
// updated before M3, and M3 before M2.
func welford(i int, x, mean, m2, m3, m4 float64) (float64, float64, float64, float64) {
	ni := float64(i + 1)
	delta := x - mean
	deltaN := delta / ni
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * float64(i)

	m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*m2 - 4*deltaN*m3
	m3 += term1*deltaN*(float64(i)-1) - 3*deltaN*m2
	m2 += term1
	mean += deltaN
	return mean, m2, m3, m4
}

func shape(nf, variance, m3, m4 float64) (skewness, kurtosis float64) {
	if variance <= 0 {
		return 0, 0
	}
	skewness = (m3 / nf) / (variance * math.Sqrt(variance))
	kurtosis = (m4/nf)/(variance*variance) - 3
	return skewness, kurtosis
}

// Pearson returns the correlation coefficient of two equally long signals.
// It returns 0 when either signal is constant or the lengths differ.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var ma, mb float64
	for i := range a {
		ma += a[i]
		mb += b[i]
	}
	nf := float64(len(a))
	ma /= nf
	mb /= nf

	var sab, saa, sbb float64
	for i := range a {
		da := a[i] - ma
		db := b[i] - mb
		sab += da * db
		saa += da * da
		sbb += db * db
	}
	if saa == 0 || sbb == 0 {
		return 0
	}
	return sab / math.Sqrt(saa*sbb)
}

// ZScores standardizes x with its mean and population standard deviation.
// A constant input yields all zeros.
func ZScores(x []float64) []float64 {
	out := make([]float64, len(x))
	mean, variance, _, _ := Moments(x)
	if variance <= 0 {
		return out
	}
	std := math.Sqrt(variance)
	for i, v := range x {
		out[i] = (v - mean) / std
	}
	return out
}
