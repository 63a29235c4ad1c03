// Package filters designs Butterworth and notch IIR filters as cascades of
// second-order sections and applies them with zero phase distortion.
//
// Filtering of a timeseries.TimeSeries happens in place: the series' Values
// are replaced, so every holder of the same *TimeSeries observes the result.
// Callers that need the unfiltered data Clone the series first.
package filters

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// ErrInvalidParameter is returned for a filter that cannot be designed at the
// signal's sampling rate, or for parameter text that does not parse.
var ErrInvalidParameter = errors.New("invalid filter parameter")

// Kind is the closed set of supported filter responses.
type Kind int

const (
	Lowpass Kind = iota
	Highpass
	Bandpass
	Bandstop
	Notch
)

func (k Kind) String() string {
	switch k {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case Bandstop:
		return "bandstop"
	case Notch:
		return "notch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps user text onto a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "lowpass", "low-pass", "lp":
		return Lowpass, nil
	case "high", "highpass", "high-pass", "hp":
		return Highpass, nil
	case "band", "bandpass", "band-pass", "bp":
		return Bandpass, nil
	case "stop", "bandstop", "band-stop", "bs":
		return Bandstop, nil
	case "notch":
		return Notch, nil
	default:
		return 0, fmt.Errorf("%w: unknown filter kind %q", ErrInvalidParameter, s)
	}
}

// Spec fully describes one filter. Which fields matter depends on Kind:
// Cutoff for Lowpass and Highpass, Low and High for the band kinds, Order for
// all Butterworth kinds, Center and Quality for Notch.
type Spec struct {
	Kind    Kind
	Cutoff  float64
	Low     float64
	High    float64
	Order   int
	Center  float64
	Quality float64
}

// ParseSpec builds a Spec from the two free-text fields of the filter form.
// For the Butterworth kinds first holds the cutoff ("40") or the band edges
// ("1,40", "[1, 40]", "1 40") and second the order. For a notch first is the
// center frequency and second the quality factor.
func ParseSpec(kind, first, second string) (Spec, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Spec{}, err
	}

	spec := Spec{Kind: k}
	switch k {
	case Notch:
		if spec.Center, err = parseFloat(first, "center frequency"); err != nil {
			return Spec{}, err
		}
		if spec.Quality, err = parseFloat(second, "quality factor"); err != nil {
			return Spec{}, err
		}
		return spec, nil

	case Bandpass, Bandstop:
		band, err := parseList(first)
		if err != nil {
			return Spec{}, err
		}
		if len(band) != 2 {
			return Spec{}, fmt.Errorf("%w: %s needs two band edges, got %q", ErrInvalidParameter, k, first)
		}
		spec.Low, spec.High = band[0], band[1]

	default:
		if spec.Cutoff, err = parseFloat(first, "cutoff frequency"); err != nil {
			return Spec{}, err
		}
	}

	order, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return Spec{}, fmt.Errorf("%w: order %q is not an integer", ErrInvalidParameter, second)
	}
	spec.Order = order
	return spec, nil
}

func parseFloat(s, what string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidParameter, what, s)
	}
	return v, nil
}

func parseList(s string) ([]float64, error) {
	trimmed := strings.Trim(strings.TrimSpace(s), "[]()")
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})

	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := parseFloat(f, "band edge")
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Validate checks the spec against a sampling rate. Every frequency must lie
// strictly between 0 and the Nyquist frequency.
func (s Spec) Validate(rate float64) error {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: sampling rate %g", ErrInvalidParameter, rate)
	}
	nyquist := rate / 2

	inBand := func(name string, f float64) error {
		if !(f > 0 && f < nyquist) {
			return fmt.Errorf("%w: %s %g Hz must be in (0, %g) Hz", ErrInvalidParameter, name, f, nyquist)
		}
		return nil
	}

	switch s.Kind {
	case Notch:
		if !(s.Quality > 0) {
			return fmt.Errorf("%w: quality factor %g must be positive", ErrInvalidParameter, s.Quality)
		}
		return inBand("center frequency", s.Center)

	case Lowpass, Highpass:
		if s.Order <= 0 {
			return fmt.Errorf("%w: order %d must be positive", ErrInvalidParameter, s.Order)
		}
		return inBand("cutoff", s.Cutoff)

	case Bandpass, Bandstop:
		if s.Order <= 0 {
			return fmt.Errorf("%w: order %d must be positive", ErrInvalidParameter, s.Order)
		}
		if err := inBand("low edge", s.Low); err != nil {
			return err
		}
		if err := inBand("high edge", s.High); err != nil {
			return err
		}
		if s.Low >= s.High {
			return fmt.Errorf("%w: low edge %g must be below high edge %g", ErrInvalidParameter, s.Low, s.High)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrInvalidParameter, s.Kind)
	}
}

// Design validates the spec and returns its second-order-section cascade.
func (s Spec) Design(rate float64) (Cascade, error) {
	if err := s.Validate(rate); err != nil {
		return nil, err
	}
	if s.Kind == Notch {
		return designNotch(s.Center, s.Quality, rate), nil
	}
	return designButterworth(s, rate)
}

func (s Spec) String() string {
	switch s.Kind {
	case Notch:
		return fmt.Sprintf("notch %g Hz Q=%g", s.Center, s.Quality)
	case Bandpass, Bandstop:
		return fmt.Sprintf("%s [%g, %g] Hz order %d", s.Kind, s.Low, s.High, s.Order)
	default:
		return fmt.Sprintf("%s %g Hz order %d", s.Kind, s.Cutoff, s.Order)
	}
}

// Apply designs the filter for rate and returns the zero-phase filtered copy
// of values.
func Apply(values []float64, rate float64, spec Spec) ([]float64, error) {
	cascade, err := spec.Design(rate)
	if err != nil {
		return nil, err
	}
	return cascade.FiltFilt(values), nil
}

// ApplyInPlace filters ts and replaces its values with the result. On error
// ts is left untouched.
func ApplyInPlace(ts *timeseries.TimeSeries, spec Spec) error {
	out, err := Apply(ts.Values, ts.SamplingRate, spec)
	if err != nil {
		return fmt.Errorf("filter %s: %w", ts.Name, err)
	}

	ts.Values = out
	logging.Debug("filter applied", logging.Fields{
		"signal": ts.Name,
		"filter": spec.String(),
		"rate":   ts.SamplingRate,
	})
	return nil
}
