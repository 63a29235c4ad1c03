package session

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/algorithms/filters"
	"github.com/RyanBlaney/sonido-scope/algorithms/spectral"
	"github.com/RyanBlaney/sonido-scope/config"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/selection"
	"github.com/RyanBlaney/sonido-scope/source"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// writeRecording writes a CSV with a 50 Hz tone and a slow ramp sampled at
// 1 kHz for rows rows.
func writeRecording(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("time,tone,ramp\n")
	for i := range rows {
		tm := float64(i) / 1000
		b.WriteString(strconv.FormatFloat(tm, 'g', -1, 64))
		b.WriteString(",")
		b.WriteString(strconv.FormatFloat(math.Sin(2*math.Pi*50*tm), 'g', -1, 64))
		b.WriteString(",")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "recording.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s := New(config.Default(), &logging.NoOpLogger{})
	require.NoError(t, s.Load(writeRecording(t, 1001)))
	return s
}

func TestLoad(t *testing.T) {
	s := newSession(t)

	assert.Equal(t, []string{"tone", "ramp"}, s.Channels())
	assert.Empty(t, s.Displayed())

	ramp, err := s.Signal("ramp")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, ramp.SamplingRate)
	assert.Equal(t, 1000, ramp.Len())
}

func TestLoad_FailureKeepsState(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("tone"))

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("nothing,useful\n1,2\n"), 0o644))

	err := s.Load(bad)
	assert.ErrorIs(t, err, source.ErrParse)
	assert.Equal(t, []string{"tone", "ramp"}, s.Channels())
	assert.Len(t, s.Displayed(), 1)
}

func TestLoad_ReplacesAndClearsDisplay(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("tone"))

	other := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(other, []byte("time,x\n0,1\n1,2\n"), 0o644))

	require.NoError(t, s.Load(other))
	assert.Equal(t, []string{"x"}, s.Channels())
	assert.Empty(t, s.Displayed())
	assert.ErrorIs(t, s.Show("tone"), timeseries.ErrUnknownSignal)
}

func TestShowHide(t *testing.T) {
	s := newSession(t)

	assert.ErrorIs(t, s.Show("missing"), timeseries.ErrUnknownSignal)

	require.NoError(t, s.Show("ramp"))
	require.NoError(t, s.Show("tone"))
	require.NoError(t, s.Show("ramp"))

	names := func() []string {
		var out []string
		for _, ts := range s.Displayed() {
			out = append(out, ts.Name)
		}
		return out
	}
	assert.Equal(t, []string{"ramp", "tone"}, names())

	assert.True(t, s.Hide("ramp"))
	assert.False(t, s.Hide("ramp"))
	assert.Equal(t, []string{"tone"}, names())
}

func TestFilter_SharedWithLoadedSet(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("tone"))

	require.NoError(t, s.Filter("tone", "notch", "50", "30"))

	loaded, err := s.Signal("tone")
	require.NoError(t, err)
	assert.Same(t, loaded, s.Displayed()[0])
	assert.Less(t, peakAbs(loaded.Values[400:600]), 0.3)
}

func TestFilter_Errors(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("tone"))
	before := append([]float64(nil), s.Displayed()[0].Values...)

	assert.ErrorIs(t, s.Filter("ramp", "lowpass", "10", "4"), timeseries.ErrUnknownSignal)
	assert.ErrorIs(t, s.Filter("tone", "lowpass", "600", "4"), filters.ErrInvalidParameter)
	assert.ErrorIs(t, s.Filter("tone", "comb", "10", "4"), filters.ErrInvalidParameter)
	assert.Equal(t, before, s.Displayed()[0].Values)
}

func TestCleanup(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("tone"))

	require.NoError(t, s.Cleanup("tone"))
	// 50 Hz sits on the lowpass corner of the chain
	assert.Less(t, peakAbs(s.Displayed()[0].Values[400:600]), 0.8)

	assert.ErrorIs(t, s.Cleanup("ramp"), timeseries.ErrUnknownSignal)
}

func TestNormalize(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("ramp"))

	require.NoError(t, s.Normalize("ramp"))
	values := s.Displayed()[0].Values
	assert.InDelta(t, -1, values[0], 1e-12)
	assert.InDelta(t, 1, values[len(values)-1], 1e-12)
}

func TestInterval(t *testing.T) {
	s := New(config.Default(), &logging.NoOpLogger{})
	require.NoError(t, s.Load(writeRecording(t, 101)))
	require.NoError(t, s.Show("tone"))
	require.NoError(t, s.Show("ramp"))

	res := s.Interval(selection.Bounds{Start: 10, End: 50, Unit: selection.Samples})
	require.Len(t, res, 2)
	for _, r := range res {
		require.True(t, r.OK())
		assert.Equal(t, selection.Range{Start: 10, End: 50}, r.Range)
	}

	res = s.Interval(selection.Bounds{Start: 5, End: 6, Unit: selection.Seconds})
	for _, r := range res {
		assert.ErrorIs(t, r.Err, selection.ErrNoSamplesInRange)
	}
}

func TestSpectrum(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("tone"))

	ws, err := s.Spectrum("tone", s.Config().Bounds())
	require.NoError(t, err)
	assert.Equal(t, "tone", ws.Signal)
	assert.Equal(t, selection.Range{Start: 0, End: 500}, ws.Range)
	assert.Equal(t, 500, ws.Spectrum.N)
	assert.Len(t, ws.Spectrum.Frequencies, 251)

	peak := ws.Spectrum.Peak()
	assert.InDelta(t, 50, peak.Frequency, 1e-9)
	assert.InDelta(t, 0.5, peak.Magnitude, 1e-6)
}

func TestSpectrum_Errors(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("tone"))

	_, err := s.Spectrum("ramp", s.Config().Bounds())
	assert.ErrorIs(t, err, timeseries.ErrUnknownSignal)

	_, err = s.Spectrum("tone", selection.Bounds{Start: 40, End: 40, Unit: selection.Samples})
	assert.ErrorIs(t, err, selection.ErrEmptyWindow)

	// a one-sample seconds window resolves to an empty half-open range
	_, err = s.Spectrum("tone", selection.Bounds{Start: 0.1, End: 0.1, Unit: selection.Seconds})
	assert.ErrorIs(t, err, spectral.ErrWindowTooSmall)
}

func TestSave(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("ramp"))
	require.NoError(t, s.Normalize("ramp"))

	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, s.Save(path))

	set, err := source.Load(path, 0, source.WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ramp"}, set.Names())

	got, err := set.Get("ramp")
	require.NoError(t, err)
	assert.Equal(t, s.Displayed()[0].Values, got.Values)
}

func TestSave_LoadedWhenNothingDisplayed(t *testing.T) {
	s := newSession(t)
	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, s.Save(path))

	set, err := source.Load(path, 0, source.WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"tone", "ramp"}, set.Names())

	empty := New(config.Default(), &logging.NoOpLogger{})
	assert.ErrorIs(t, empty.Save(path), ErrNothingToSave)
}

func peakAbs(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}

func TestNormalizeWith(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Show("ramp"))

	require.NoError(t, s.NormalizeWith("ramp", common.Peak))
	values := s.Displayed()[0].Values
	assert.InDelta(t, 0, values[0], 1e-12)
	assert.InDelta(t, 1, values[len(values)-1], 1e-12)

	assert.ErrorIs(t, s.NormalizeWith("tone", common.ZScore), timeseries.ErrUnknownSignal)
}
