// Package timeseries holds the sampled-channel entity and the two containers
// the engine works with: the loaded set produced by a source, and the
// displayed set the user analyzes.
//
// Ownership: a *TimeSeries belongs to the LoadedSet that created it. The
// DisplayedSet stores the very same pointers, so an in-place filter applied
// through one view is visible through the other. Callers that need the
// pre-filter samples must Clone before filtering.
package timeseries

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSeries indicates a series that violates its own invariants.
	ErrInvalidSeries = errors.New("invalid time series")

	// ErrLengthMismatch indicates explicit timestamps whose length differs from the values.
	ErrLengthMismatch = errors.New("timestamps and values differ in length")

	// ErrUnknownSignal indicates a name lookup that found nothing.
	ErrUnknownSignal = errors.New("unknown signal")

	// ErrDuplicateName indicates an attempt to add a second series with an existing name.
	ErrDuplicateName = errors.New("duplicate signal name")
)

// TimeSeries is one named channel of samples.
type TimeSeries struct {
	// Name is unique within the source that produced the series.
	Name string

	// Values holds the samples. Filtering replaces this slice.
	Values []float64

	// SamplingRate in samples per second. Only describes the spacing of
	// Values when Timestamps is nil or itself uniform.
	SamplingRate float64

	// Timestamps are optional sample times in seconds. When nil, sample i is
	// at i/SamplingRate.
	Timestamps []float64
}

// New builds a validated series. The slices are used as given, not copied.
func New(name string, values []float64, samplingRate float64, timestamps []float64) (*TimeSeries, error) {
	ts := &TimeSeries{
		Name:         name,
		Values:       values,
		SamplingRate: samplingRate,
		Timestamps:   timestamps,
	}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

// Validate checks the series invariants.
func (ts *TimeSeries) Validate() error {
	if ts.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSeries)
	}
	if ts.SamplingRate <= 0 || math.IsNaN(ts.SamplingRate) || math.IsInf(ts.SamplingRate, 0) {
		return fmt.Errorf("%w: %q has sampling rate %v", ErrInvalidSeries, ts.Name, ts.SamplingRate)
	}
	if ts.Timestamps != nil && len(ts.Timestamps) != len(ts.Values) {
		return fmt.Errorf("%w: %q has %d timestamps for %d values",
			ErrLengthMismatch, ts.Name, len(ts.Timestamps), len(ts.Values))
	}
	return nil
}

// Len returns the number of samples.
func (ts *TimeSeries) Len() int {
	return len(ts.Values)
}

// HasTimestamps reports whether the series carries explicit sample times.
func (ts *TimeSeries) HasTimestamps() bool {
	return ts.Timestamps != nil
}

// TimeAt returns the time of sample i in seconds.
func (ts *TimeSeries) TimeAt(i int) float64 {
	if ts.Timestamps != nil {
		return ts.Timestamps[i]
	}
	return float64(i) / ts.SamplingRate
}

// Times returns the explicit timestamps, or a freshly built implied vector.
func (ts *TimeSeries) Times() []float64 {
	if ts.Timestamps != nil {
		return ts.Timestamps
	}
	times := make([]float64, len(ts.Values))
	for i := range times {
		times[i] = float64(i) / ts.SamplingRate
	}
	return times
}

// Duration is the time between the first and the last sample.
func (ts *TimeSeries) Duration() float64 {
	n := ts.Len()
	if n < 2 {
		return 0
	}
	return ts.TimeAt(n-1) - ts.TimeAt(0)
}

// Clone returns a deep copy that shares nothing with ts.
func (ts *TimeSeries) Clone() *TimeSeries {
	c := &TimeSeries{
		Name:         ts.Name,
		SamplingRate: ts.SamplingRate,
		Values:       append([]float64(nil), ts.Values...),
	}
	if ts.Timestamps != nil {
		c.Timestamps = append([]float64(nil), ts.Timestamps...)
	}
	return c
}

func (ts *TimeSeries) String() string {
	return fmt.Sprintf("%s(%d samples @ %g Hz)", ts.Name, ts.Len(), ts.SamplingRate)
}
