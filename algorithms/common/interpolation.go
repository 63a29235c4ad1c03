package common

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// ErrInterpolation is returned when sample points cannot be fitted.
var ErrInterpolation = errors.New("interpolation failed")

// gridTolerance absorbs floating point error in duration*rate so that a
// signal sampled exactly at rate does not gain an extra grid point.
const gridTolerance = 1e-12

// UniformGrid returns the times k/rate for k = 0, 1, ... strictly below
// duration, like numpy.arange(0, duration, 1/rate).
func UniformGrid(duration, rate float64) []float64 {
	if duration <= 0 || rate <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return []float64{}
	}

	n := int(math.Ceil(duration * rate * (1 - gridTolerance)))
	grid := make([]float64, n)
	for k := range grid {
		grid[k] = float64(k) / rate
	}
	return grid
}

// LinearOnto evaluates the piecewise-linear curve through (xs, ys) at every
// point of grid. Points outside [xs[0], xs[len-1]] evaluate to zero instead
// of being extrapolated. xs must be strictly increasing.
func LinearOnto(xs, ys, grid []float64) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values for %d y values", ErrInterpolation, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, have %d", ErrInterpolation, len(xs))
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterpolation, err)
	}

	lo, hi := xs[0], xs[len(xs)-1]
	out := make([]float64, len(grid))
	for i, t := range grid {
		if t < lo || t > hi {
			continue
		}
		out[i] = pl.Predict(t)
	}
	return out, nil
}
