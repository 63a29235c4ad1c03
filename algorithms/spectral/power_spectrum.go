package spectral

import (
	"math"
)

// Power returns the squared magnitudes.
func (r *Result) Power() []float64 {
	power := make([]float64, len(r.Magnitudes))
	for i, mag := range r.Magnitudes {
		power[i] = mag * mag
	}
	return power
}

// PowerDB returns 10*log10 of the power, clamped below at floorDB.
func (r *Result) PowerDB(floorDB float64) []float64 {
	floor := math.Pow(10, floorDB/10.0)
	logPower := make([]float64, len(r.Magnitudes))

	for i, mag := range r.Magnitudes {
		power := mag * mag
		if power < floor {
			power = floor
		}
		logPower[i] = 10 * math.Log10(power)
	}
	return logPower
}
