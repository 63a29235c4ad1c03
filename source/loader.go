// Package source reads recordings into a timeseries.LoadedSet.
//
// The file extension picks the reader: .xdf multi-stream containers keep
// each stream's own clock, .wav recordings keep their native rate, .parquet
// files restore a previously saved signal set, and anything else is read as
// a tabular CSV and resampled onto a uniform grid.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

var (
	// ErrParse is returned when a file cannot be read as tabular data or a
	// value in it cannot be interpreted.
	ErrParse = errors.New("parse error")
	// ErrFormat is returned for a malformed binary container.
	ErrFormat = errors.New("format error")
)

// Format names a supported input layout.
type Format string

const (
	FormatTabular Format = "tabular"
	FormatXDF     Format = "xdf"
	FormatWAV     Format = "wav"
	FormatParquet Format = "parquet"
)

// DetectFormat picks the reader for path from its extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xdf":
		return FormatXDF
	case ".wav", ".wave":
		return FormatWAV
	case ".parquet":
		return FormatParquet
	default:
		return FormatTabular
	}
}

type options struct {
	clockSync bool
	logger    logging.Logger
}

// Option tunes Load.
type Option func(*options)

// WithClockSync controls whether XDF clock offsets are applied to stream
// timestamps. Enabled by default.
func WithClockSync(enabled bool) Option {
	return func(o *options) {
		o.clockSync = enabled
	}
}

// WithLogger sets the logger used while loading. The global logger is used
// otherwise.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Load reads path into a new LoadedSet. targetRate is the uniform rate
// tabular data is resampled to; the other formats keep their native rates.
func Load(path string, targetRate float64, opts ...Option) (*timeseries.LoadedSet, error) {
	o := options{clockSync: true}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrGlobal(o.logger).WithFields(logging.Fields{
		"path": path,
	})

	format := DetectFormat(path)
	logger.Debug("loading signals", logging.Fields{"format": string(format)})

	var (
		set *timeseries.LoadedSet
		err error
	)
	switch format {
	case FormatXDF:
		set, err = loadXDF(path, o.clockSync, logger)
	case FormatWAV:
		set, err = loadWAV(path, logger)
	case FormatParquet:
		set, err = loadParquet(path)
	default:
		set, err = loadTabular(path, targetRate, logger)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("signals loaded", logging.Fields{
		"format":   string(format),
		"channels": set.Len(),
	})
	return set, nil
}

// buildSet adds series to a fresh set. Any rejected series fails the whole
// load with errKind.
func buildSet(series []*timeseries.TimeSeries, errKind error) (*timeseries.LoadedSet, error) {
	set := timeseries.NewLoadedSet()
	for _, ts := range series {
		if err := set.Add(ts); err != nil {
			return nil, fmt.Errorf("%w: %v", errKind, err)
		}
	}
	return set, nil
}
