// Package config holds the engine settings shared by the session and the CLI.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-scope/algorithms/windowing"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/selection"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultTargetSamplingRate = 1000.0
	DefaultWindowStart        = 0.0
	DefaultWindowEnd          = 500.0
	DefaultWindowUnit         = "samples"
	DefaultSpectrumWindow     = "rectangular"
	DefaultLogLevel           = "info"
)

type Config struct {
	// Tabular sources are resampled to this rate (Hz)
	TargetSamplingRate float64 `json:"target_sampling_rate" mapstructure:"target-rate"`

	// Analysis window
	WindowStart float64 `json:"window_start" mapstructure:"start"`
	WindowEnd   float64 `json:"window_end" mapstructure:"end"`
	WindowUnit  string  `json:"window_unit" mapstructure:"unit"` // "samples", "seconds"

	// Taper applied before the FFT
	SpectrumWindow string `json:"spectrum_window" mapstructure:"taper"`

	// Apply XDF clock offsets to stream timestamps
	ClockSync bool `json:"clock_sync" mapstructure:"clock-sync"`

	LogLevel string `json:"log_level" mapstructure:"log-level"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		TargetSamplingRate: DefaultTargetSamplingRate,
		WindowStart:        DefaultWindowStart,
		WindowEnd:          DefaultWindowEnd,
		WindowUnit:         DefaultWindowUnit,
		SpectrumWindow:     DefaultSpectrumWindow,
		ClockSync:          true,
		LogLevel:           DefaultLogLevel,
	}
}

// Validate checks every field and reports the first problem found.
func (c Config) Validate() error {
	if !(c.TargetSamplingRate > 0) || math.IsInf(c.TargetSamplingRate, 0) {
		return fmt.Errorf("%w: target sampling rate %g must be positive", ErrInvalidConfig, c.TargetSamplingRate)
	}
	if math.IsNaN(c.WindowStart) || math.IsNaN(c.WindowEnd) {
		return fmt.Errorf("%w: window bounds must be numbers", ErrInvalidConfig)
	}
	if _, err := selection.ParseUnit(c.WindowUnit); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := windowing.ParseType(c.SpectrumWindow); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Bounds returns the configured analysis window. Call Validate first.
func (c Config) Bounds() selection.Bounds {
	unit, _ := selection.ParseUnit(c.WindowUnit)
	return selection.Bounds{Start: c.WindowStart, End: c.WindowEnd, Unit: unit}
}

// Taper returns the configured spectrum window type. Call Validate first.
func (c Config) Taper() windowing.Type {
	t, _ := windowing.ParseType(c.SpectrumWindow)
	return t
}

// Level returns the configured log level, falling back to info.
func (c Config) Level() logging.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}
