package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		series  TimeSeries
		wantErr error
	}{
		{"valid implied", TimeSeries{Name: "ch1", Values: []float64{1, 2}, SamplingRate: 10}, nil},
		{"valid explicit", TimeSeries{Name: "ch1", Values: []float64{1, 2}, SamplingRate: 10, Timestamps: []float64{0, 0.1}}, nil},
		{"empty name", TimeSeries{Values: []float64{1}, SamplingRate: 10}, ErrInvalidSeries},
		{"zero rate", TimeSeries{Name: "x", Values: []float64{1}}, ErrInvalidSeries},
		{"length mismatch", TimeSeries{Name: "x", Values: []float64{1, 2}, SamplingRate: 1, Timestamps: []float64{0}}, ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.series.Name, tt.series.Values, tt.series.SamplingRate, tt.series.Timestamps)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTimeAt_ImpliedAndExplicit(t *testing.T) {
	implied := &TimeSeries{Name: "a", Values: make([]float64, 5), SamplingRate: 4}
	assert.InDelta(t, 0.5, implied.TimeAt(2), 1e-12)
	assert.InDelta(t, 1.0, implied.Duration(), 1e-12)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, implied.Times())

	explicit := &TimeSeries{Name: "b", Values: []float64{1, 2, 3}, SamplingRate: 1, Timestamps: []float64{10, 10.5, 12}}
	assert.Equal(t, 10.5, explicit.TimeAt(1))
	assert.Equal(t, 2.0, explicit.Duration())
	assert.True(t, explicit.HasTimestamps())
}

func TestClone_IsDeep(t *testing.T) {
	orig := &TimeSeries{Name: "a", Values: []float64{1, 2}, SamplingRate: 1, Timestamps: []float64{0, 1}}
	c := orig.Clone()
	c.Values[0] = 99
	c.Timestamps[0] = 99

	assert.Equal(t, 1.0, orig.Values[0])
	assert.Equal(t, 0.0, orig.Timestamps[0])
}

func TestLoadedSet(t *testing.T) {
	set := NewLoadedSet()
	require.NoError(t, set.Add(&TimeSeries{Name: "b", Values: []float64{1}, SamplingRate: 1}))
	require.NoError(t, set.Add(&TimeSeries{Name: "a", Values: []float64{1}, SamplingRate: 1}))

	err := set.Add(&TimeSeries{Name: "a", Values: []float64{2}, SamplingRate: 1})
	assert.ErrorIs(t, err, ErrDuplicateName)

	assert.Equal(t, []string{"b", "a"}, set.Names())
	assert.Equal(t, 2, set.Len())

	_, err = set.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownSignal)
}

func TestDisplayedSet_AddRemove(t *testing.T) {
	a := &TimeSeries{Name: "a", Values: []float64{1}, SamplingRate: 1}
	b := &TimeSeries{Name: "b", Values: []float64{2}, SamplingRate: 1}

	d := NewDisplayedSet()
	assert.True(t, d.Add(a))
	assert.True(t, d.Add(b))
	assert.False(t, d.Add(&TimeSeries{Name: "a", Values: []float64{3}, SamplingRate: 1}), "duplicate names are rejected")
	assert.Equal(t, []string{"a", "b"}, d.Names())

	assert.False(t, d.Remove("never-added"))
	assert.Equal(t, 2, d.Len(), "removing an absent name changes nothing")

	assert.True(t, d.Remove("a"))
	assert.Equal(t, []string{"b"}, d.Names())

	_, err := d.Get("a")
	assert.ErrorIs(t, err, ErrUnknownSignal)
}

func TestDisplayedSet_SharesPointersWithLoadedSet(t *testing.T) {
	set := NewLoadedSet()
	require.NoError(t, set.Add(&TimeSeries{Name: "ch1", Values: []float64{1, 2, 3}, SamplingRate: 1}))

	loaded, err := set.Get("ch1")
	require.NoError(t, err)

	d := NewDisplayedSet()
	d.Add(loaded)

	shown, err := d.Get("ch1")
	require.NoError(t, err)
	shown.Values = []float64{7, 8, 9}

	again, err := set.Get("ch1")
	require.NoError(t, err)
	assert.Same(t, shown, again)
	assert.Equal(t, []float64{7, 8, 9}, again.Values)
}
