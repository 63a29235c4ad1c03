// Package selection turns user-entered interval bounds into per-signal index
// ranges.
//
// Each signal is resolved on its own: in seconds mode the bounds are matched
// against that signal's timestamps, so signals with different rates or
// clocks map the same bounds onto different index ranges.
package selection

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-scope/timeseries"
)

var (
	// ErrInvalidBound is returned when a bound is not a number.
	ErrInvalidBound = errors.New("invalid window bound")
	// ErrEmptyWindow is returned when a sample-unit window has no samples.
	ErrEmptyWindow = errors.New("empty window")
	// ErrNoSamplesInRange is returned when no timestamp falls inside a
	// seconds-unit window.
	ErrNoSamplesInRange = errors.New("no samples in range")
	// ErrInvalidUnit is returned for an unknown unit name.
	ErrInvalidUnit = errors.New("invalid window unit")
)

// Unit tells how Bounds are interpreted.
type Unit int

const (
	Samples Unit = iota
	Seconds
)

func (u Unit) String() string {
	switch u {
	case Samples:
		return "samples"
	case Seconds:
		return "seconds"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// ParseUnit maps user text onto a Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "samples", "sample", "n":
		return Samples, nil
	case "seconds", "second", "sec", "s":
		return Seconds, nil
	}
	return Samples, fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

// Bounds is an analysis interval in the given unit.
type Bounds struct {
	Start float64
	End   float64
	Unit  Unit
}

// ParseBounds parses the two text fields of the interval form.
func ParseBounds(start, end string, unit Unit) (Bounds, error) {
	s, err := strconv.ParseFloat(strings.TrimSpace(start), 64)
	if err != nil || math.IsNaN(s) {
		return Bounds{}, fmt.Errorf("%w: start %q", ErrInvalidBound, start)
	}
	e, err := strconv.ParseFloat(strings.TrimSpace(end), 64)
	if err != nil || math.IsNaN(e) {
		return Bounds{}, fmt.Errorf("%w: end %q", ErrInvalidBound, end)
	}
	return Bounds{Start: s, End: e, Unit: unit}, nil
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g, %g] %s", b.Start, b.End, b.Unit)
}

// Range is the half-open index interval [Start, End) of one signal.
type Range struct {
	Start int
	End   int
}

// Len is the number of samples in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Slice returns the range's values. The slice aliases ts.Values.
func (r Range) Slice(ts *timeseries.TimeSeries) []float64 {
	return ts.Values[r.Start:r.End]
}

// Times returns the timestamps of the range's samples.
func (r Range) Times(ts *timeseries.TimeSeries) []float64 {
	if ts.HasTimestamps() {
		return ts.Timestamps[r.Start:r.End]
	}
	out := make([]float64, r.Len())
	for i := range out {
		out[i] = ts.TimeAt(r.Start + i)
	}
	return out
}

// Resolve maps bounds onto an index range of ts.
//
// In sample units start is clamped at 0 and end at len(ts), both truncated
// toward zero. In second units start becomes the first index whose timestamp
// is >= Start and end the last index whose timestamp is <= End. Range is
// half-open in both units, so the sample at that last index is not sliced.
// NaN bounds fail with ErrInvalidBound.
func Resolve(ts *timeseries.TimeSeries, b Bounds) (Range, error) {
	if math.IsNaN(b.Start) || math.IsNaN(b.End) {
		return Range{}, fmt.Errorf("%w: %s", ErrInvalidBound, b)
	}
	switch b.Unit {
	case Samples:
		return resolveSamples(ts, b)
	case Seconds:
		return resolveSeconds(ts, b)
	default:
		return Range{}, fmt.Errorf("%w: %s", ErrInvalidUnit, b.Unit)
	}
}

func resolveSamples(ts *timeseries.TimeSeries, b Bounds) (Range, error) {
	n := ts.Len()
	start := truncate(math.Max(b.Start, 0), n)
	end := truncate(math.Min(b.End, float64(n)), n)

	if end <= start {
		return Range{}, fmt.Errorf("%w: %s selects nothing from %s (%d samples)", ErrEmptyWindow, b, ts.Name, n)
	}
	return Range{Start: start, End: end}, nil
}

// truncate converts toward zero and keeps the result inside [0, n].
func truncate(v float64, n int) int {
	if math.IsInf(v, 1) || v >= float64(n) {
		return n
	}
	if math.IsInf(v, -1) || v <= 0 {
		return 0
	}
	return int(v)
}

func resolveSeconds(ts *timeseries.TimeSeries, b Bounds) (Range, error) {
	first, last := -1, -1
	for i := range ts.Len() {
		t := ts.TimeAt(i)
		if t < b.Start || t > b.End {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}

	if first < 0 {
		return Range{}, fmt.Errorf("%w: %s on %s", ErrNoSamplesInRange, b, ts.Name)
	}
	return Range{Start: first, End: last}, nil
}

// Resolution is the outcome of resolving bounds for one signal.
type Resolution struct {
	Series *timeseries.TimeSeries
	Range  Range
	Err    error
}

// OK reports whether the signal has a usable range.
func (r Resolution) OK() bool {
	return r.Err == nil
}

// ResolveAll resolves b for every series independently. A failure for one
// series is reported in its own Resolution and does not affect the others.
func ResolveAll(series []*timeseries.TimeSeries, b Bounds) []Resolution {
	out := make([]Resolution, len(series))
	for i, ts := range series {
		r, err := Resolve(ts, b)
		out[i] = Resolution{Series: ts, Range: r, Err: err}
	}
	return out
}
