// Package session ties the engine together for one interactive user: it owns
// the loaded and displayed sets and runs filters, window selection and
// spectra against them.
//
// A Session is meant for a single caller and does no locking.
package session

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/algorithms/filters"
	"github.com/RyanBlaney/sonido-scope/algorithms/spectral"
	"github.com/RyanBlaney/sonido-scope/config"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/selection"
	"github.com/RyanBlaney/sonido-scope/source"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// ErrNothingToSave is returned by Save before anything has been loaded.
var ErrNothingToSave = errors.New("no signals to save")

type Session struct {
	cfg       config.Config
	logger    logging.Logger
	analyzer  *spectral.Analyzer
	loaded    *timeseries.LoadedSet
	displayed *timeseries.DisplayedSet
}

// WindowSpectrum is the spectrum of one signal over its resolved window.
type WindowSpectrum struct {
	Signal   string
	Range    selection.Range
	Spectrum *spectral.Result
}

// New creates an empty session. cfg should already be validated; a nil
// logger means the global one.
func New(cfg config.Config, logger logging.Logger) *Session {
	return &Session{
		cfg:       cfg,
		logger:    logging.OrGlobal(logger).WithFields(logging.Fields{"component": "session"}),
		analyzer:  spectral.NewAnalyzer(spectral.WithWindow(cfg.Taper())),
		loaded:    timeseries.NewLoadedSet(),
		displayed: timeseries.NewDisplayedSet(),
	}
}

// Config returns the settings the session was created with.
func (s *Session) Config() config.Config {
	return s.cfg
}

// Load replaces the loaded signals with the contents of path and clears the
// display. On error the session keeps its previous state.
func (s *Session) Load(path string) error {
	set, err := source.Load(path, s.cfg.TargetSamplingRate,
		source.WithClockSync(s.cfg.ClockSync),
		source.WithLogger(s.logger),
	)
	if err != nil {
		s.logger.Error(err, "load failed", logging.Fields{"path": path})
		return err
	}

	s.loaded = set
	s.displayed.Clear()
	return nil
}

// Channels lists the loaded signal names in load order.
func (s *Session) Channels() []string {
	return s.loaded.Names()
}

// Signal returns a loaded series by name.
func (s *Session) Signal(name string) (*timeseries.TimeSeries, error) {
	return s.loaded.Get(name)
}

// Show adds a loaded signal to the display. Showing a displayed signal again
// changes nothing.
func (s *Session) Show(name string) error {
	ts, err := s.loaded.Get(name)
	if err != nil {
		return err
	}
	if s.displayed.Add(ts) {
		s.logger.Debug("signal displayed", logging.Fields{"signal": name})
	}
	return nil
}

// Hide removes name from the display. It reports whether it was displayed.
func (s *Session) Hide(name string) bool {
	return s.displayed.Remove(name)
}

// Displayed returns the displayed signals in display order.
func (s *Session) Displayed() []*timeseries.TimeSeries {
	return s.displayed.Series()
}

// Filter applies a zero-phase filter to a displayed signal in place. kind,
// first and second are the raw values of the filter form.
func (s *Session) Filter(name, kind, first, second string) error {
	ts, err := s.displayed.Get(name)
	if err != nil {
		return err
	}
	spec, err := filters.ParseSpec(kind, first, second)
	if err != nil {
		return err
	}
	return filters.ApplyInPlace(ts, spec)
}

// Cleanup runs the fixed harmonic cleanup chain on a displayed signal in place.
func (s *Session) Cleanup(name string) error {
	ts, err := s.displayed.Get(name)
	if err != nil {
		return err
	}
	return filters.HarmonicCleanupInPlace(ts)
}

// Normalize rescales a displayed signal in place onto [-1, 1].
func (s *Session) Normalize(name string) error {
	return s.NormalizeWith(name, common.RangeNorm)
}

// NormalizeWith rescales a displayed signal in place with the given method.
func (s *Session) NormalizeWith(name string, method common.NormalizationType) error {
	ts, err := s.displayed.Get(name)
	if err != nil {
		return err
	}
	ts.Values = common.Normalize(ts.Values, method)
	s.logger.Debug("signal normalized", logging.Fields{"signal": name, "method": method.String()})
	return nil
}

// Interval resolves b for every displayed signal. Failures are reported per
// signal.
func (s *Session) Interval(b selection.Bounds) []selection.Resolution {
	res := selection.ResolveAll(s.displayed.Series(), b)
	for _, r := range res {
		if !r.OK() {
			s.logger.Warn("window does not fit signal", logging.Fields{
				"signal": r.Series.Name,
				"window": b.String(),
				"error":  r.Err.Error(),
			})
		}
	}
	return res
}

// Spectrum computes the spectrum of a displayed signal over the window b.
func (s *Session) Spectrum(name string, b selection.Bounds) (*WindowSpectrum, error) {
	ts, err := s.displayed.Get(name)
	if err != nil {
		return nil, err
	}
	r, err := selection.Resolve(ts, b)
	if err != nil {
		return nil, err
	}
	res, err := s.analyzer.Spectrum(r.Slice(ts), ts.SamplingRate)
	if err != nil {
		return nil, fmt.Errorf("spectrum %s: %w", name, err)
	}
	return &WindowSpectrum{Signal: name, Range: r, Spectrum: res}, nil
}

// Save writes the displayed signals to a Parquet file, or every loaded signal
// when nothing is displayed.
func (s *Session) Save(path string) error {
	series := s.displayed.Series()
	if len(series) == 0 {
		series = s.loaded.Series()
	}
	if len(series) == 0 {
		return ErrNothingToSave
	}

	if err := source.Save(path, series); err != nil {
		return err
	}
	s.logger.Info("signals saved", logging.Fields{"path": path, "signals": len(series)})
	return nil
}
