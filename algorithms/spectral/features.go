package spectral

import (
	"math"
)

// Features summarizes the shape of a spectrum.
type Features struct {
	Centroid  float64 `json:"centroid"`
	Bandwidth float64 `json:"bandwidth"`
	Rolloff   float64 `json:"rolloff"`
	Flatness  float64 `json:"flatness"`
}

// flatnessFloor clamps empty bins so log(0) stays out of the geometric mean.
const flatnessFloor = 1e-10

// Features computes centroid, bandwidth, 85% rolloff and flatness. The DC
// bin is included, matching the magnitudes as they are displayed.
func (r *Result) Features() Features {
	centroid := r.Centroid()
	return Features{
		Centroid:  centroid,
		Bandwidth: r.Bandwidth(centroid),
		Rolloff:   r.Rolloff(0.85),
		Flatness:  r.Flatness(),
	}
}

// Centroid is the magnitude-weighted mean frequency.
func (r *Result) Centroid() float64 {
	numerator, denominator := 0.0, 0.0
	for i, mag := range r.Magnitudes {
		numerator += r.Frequencies[i] * mag
		denominator += mag
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Bandwidth is the magnitude-weighted spread around centroid.
func (r *Result) Bandwidth(centroid float64) float64 {
	numerator, denominator := 0.0, 0.0
	for i, mag := range r.Magnitudes {
		diff := r.Frequencies[i] - centroid
		numerator += diff * diff * mag
		denominator += mag
	}
	if denominator == 0 {
		return 0
	}
	return math.Sqrt(numerator / denominator)
}

// Rolloff is the lowest frequency below which threshold of the energy lies.
func (r *Result) Rolloff(threshold float64) float64 {
	total := 0.0
	for _, mag := range r.Magnitudes {
		total += mag * mag
	}
	if total == 0 {
		return 0
	}

	target := threshold * total
	cumulative := 0.0
	for i, mag := range r.Magnitudes {
		cumulative += mag * mag
		if cumulative >= target {
			return r.Frequencies[i]
		}
	}
	return r.Frequencies[len(r.Frequencies)-1]
}

// Flatness is the ratio of geometric to arithmetic mean magnitude, near 0
// for a pure tone and near 1 for white noise.
func (r *Result) Flatness() float64 {
	if len(r.Magnitudes) == 0 {
		return 0
	}

	logSum := 0.0
	arithmetic := 0.0
	for _, mag := range r.Magnitudes {
		arithmetic += mag
		logSum += math.Log(math.Max(mag, flatnessFloor))
	}
	arithmetic /= float64(len(r.Magnitudes))

	if arithmetic <= flatnessFloor {
		return 0
	}
	return math.Exp(logSum/float64(len(r.Magnitudes))) / arithmetic
}
