package timeseries

import (
	"fmt"
	"slices"
)

// LoadedSet maps channel names to series in the order the source produced them.
// One load operation produces one LoadedSet; a new load replaces it wholesale.
type LoadedSet struct {
	order  []string
	byName map[string]*TimeSeries
}

// NewLoadedSet creates an empty set.
func NewLoadedSet() *LoadedSet {
	return &LoadedSet{byName: make(map[string]*TimeSeries)}
}

// Add inserts ts. Names must be unique within the set.
func (s *LoadedSet) Add(ts *TimeSeries) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	if _, exists := s.byName[ts.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, ts.Name)
	}
	s.order = append(s.order, ts.Name)
	s.byName[ts.Name] = ts
	return nil
}

// Get returns the series registered under name.
func (s *LoadedSet) Get(name string) (*TimeSeries, error) {
	ts, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
	}
	return ts, nil
}

// Names returns the channel names in load order.
func (s *LoadedSet) Names() []string {
	return slices.Clone(s.order)
}

// Series returns the series in load order.
func (s *LoadedSet) Series() []*TimeSeries {
	out := make([]*TimeSeries, len(s.order))
	for i, name := range s.order {
		out[i] = s.byName[name]
	}
	return out
}

// Len returns the number of series.
func (s *LoadedSet) Len() int {
	return len(s.order)
}

// DisplayedSet is the ordered selection of series the user is looking at.
// It holds references into a LoadedSet, never copies.
type DisplayedSet struct {
	series []*TimeSeries
}

// NewDisplayedSet creates an empty selection.
func NewDisplayedSet() *DisplayedSet {
	return &DisplayedSet{}
}

// Add appends ts unless a series with the same name is already displayed.
// It reports whether ts was appended.
func (d *DisplayedSet) Add(ts *TimeSeries) bool {
	if d.index(ts.Name) >= 0 {
		return false
	}
	d.series = append(d.series, ts)
	return true
}

// Remove drops the series called name. Removing an absent name is a no-op.
func (d *DisplayedSet) Remove(name string) bool {
	i := d.index(name)
	if i < 0 {
		return false
	}
	d.series = slices.Delete(d.series, i, i+1)
	return true
}

// Get returns the displayed series called name.
func (d *DisplayedSet) Get(name string) (*TimeSeries, error) {
	i := d.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q is not displayed", ErrUnknownSignal, name)
	}
	return d.series[i], nil
}

// Contains reports whether a series called name is displayed.
func (d *DisplayedSet) Contains(name string) bool {
	return d.index(name) >= 0
}

// Series returns the displayed series in display order. The slice is a copy;
// the series are the shared originals.
func (d *DisplayedSet) Series() []*TimeSeries {
	return slices.Clone(d.series)
}

// Names returns the displayed names in display order.
func (d *DisplayedSet) Names() []string {
	names := make([]string, len(d.series))
	for i, ts := range d.series {
		names[i] = ts.Name
	}
	return names
}

// Len returns the number of displayed series.
func (d *DisplayedSet) Len() int {
	return len(d.series)
}

// Clear empties the selection.
func (d *DisplayedSet) Clear() {
	d.series = nil
}

func (d *DisplayedSet) index(name string) int {
	return slices.IndexFunc(d.series, func(ts *TimeSeries) bool { return ts.Name == name })
}
