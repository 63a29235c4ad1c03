package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistics shared by the loaders and the analyzers, backed by gonum.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.StdDev(data, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// MinMax returns the smallest and largest value. Both are zero for empty input.
func MinMax(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return floats.Min(data), floats.Max(data)
}

// Summary holds descriptive statistics of one slice.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
	RMS   float64
}

// Summarize computes a Summary of data.
func Summarize(data []float64) Summary {
	lo, hi := MinMax(data)
	return Summary{
		Count: len(data),
		Min:   lo,
		Max:   hi,
		Mean:  Mean(data),
		Std:   StandardDeviation(data),
		RMS:   RMS(data),
	}
}

// LinRegression fits y = intercept + slope*x by least squares using gonum.
// Fewer than two points yield a flat line through the mean.
func LinRegression(x, y []float64) (slope, intercept float64) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, 0
	}
	if len(x) == 1 || floats.Min(x) == floats.Max(x) {
		return 0, Mean(y)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return beta, alpha
}

// FindPeaks returns the indices of strict local maxima at or above minHeight,
// ordered by decreasing height.
func FindPeaks(data []float64, minHeight float64) []int {
	if len(data) < 3 {
		return []int{}
	}

	peaks := []int{}
	for i := 1; i < len(data)-1; i++ {
		if data[i] > data[i-1] && data[i] >= data[i+1] && data[i] >= minHeight {
			peaks = append(peaks, i)
		}
	}

	sort.SliceStable(peaks, func(a, b int) bool {
		return data[peaks[a]] > data[peaks[b]]
	})
	return peaks
}
