package common

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// NormalizationType selects how a signal is rescaled
type NormalizationType int

const (
	// RangeNorm maps the signal onto [-1, 1]
	RangeNorm NormalizationType = iota
	// ZScore removes the mean and divides by the standard deviation
	ZScore
	// Peak divides by the largest absolute value
	Peak
	// RMSNorm divides by the root mean square
	RMSNorm
)

var normalizationNames = map[NormalizationType]string{
	RangeNorm: "range",
	ZScore:    "zscore",
	Peak:      "peak",
	RMSNorm:   "rms",
}

func (n NormalizationType) String() string {
	if name, ok := normalizationNames[n]; ok {
		return name
	}
	return fmt.Sprintf("normalization(%d)", int(n))
}

// ParseNormalization maps a configuration name onto a NormalizationType.
func ParseNormalization(s string) (NormalizationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "range", "minmax", "min-max":
		return RangeNorm, nil
	case "zscore", "z-score", "standard":
		return ZScore, nil
	case "peak":
		return Peak, nil
	case "rms":
		return RMSNorm, nil
	}
	return RangeNorm, fmt.Errorf("unknown normalization %q", s)
}

// Normalize returns a rescaled copy of signal.
func Normalize(signal []float64, method NormalizationType) []float64 {
	switch method {
	case ZScore:
		return zScoreNormalize(signal)
	case Peak:
		return peakNormalize(signal)
	case RMSNorm:
		return scaleBy(signal, RMS(signal))
	default:
		return NormalizeRange(signal)
	}
}

// NormalizeRange maps data linearly onto [-1, 1]. Constant input maps to zeros.
func NormalizeRange(data []float64) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}

	lo, hi := MinMax(data)
	span := hi - lo
	if span < 1e-12 {
		return out
	}

	for i, v := range data {
		out[i] = 2*(v-lo)/span - 1
	}
	return out
}

// zScoreNormalize normalizes to zero mean and unit variance. A constant
// signal only loses its mean.
func zScoreNormalize(signal []float64) []float64 {
	mean := Mean(signal)
	std := StandardDeviation(signal)

	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = v - mean
	}
	if std < 1e-10 {
		return out
	}
	floats.Scale(1/std, out)
	return out
}

func peakNormalize(signal []float64) []float64 {
	peak := 0.0
	if len(signal) > 0 {
		lo, hi := MinMax(signal)
		peak = max(-lo, hi)
	}
	return scaleBy(signal, peak)
}

// scaleBy divides a copy of signal by d. Silent signals (d near zero) are
// returned unchanged.
func scaleBy(signal []float64, d float64) []float64 {
	out := append([]float64(nil), signal...)
	if d < 1e-10 {
		return out
	}
	floats.Scale(1/d, out)
	return out
}
