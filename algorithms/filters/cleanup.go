package filters

import (
	"fmt"

	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// cleanupStages is the fixed mains and motion-artifact removal chain:
// notches at 60 Hz and its harmonics, notches at 17 Hz and its harmonics,
// then a 50 Hz lowpass and a 4 Hz highpass.
var cleanupStages = []Spec{
	{Kind: Notch, Center: 60, Quality: 10},
	{Kind: Notch, Center: 120, Quality: 30},
	{Kind: Notch, Center: 180, Quality: 30},
	{Kind: Notch, Center: 17, Quality: 30},
	{Kind: Notch, Center: 34, Quality: 30},
	{Kind: Notch, Center: 51, Quality: 30},
	{Kind: Notch, Center: 68, Quality: 30},
	{Kind: Notch, Center: 85, Quality: 30},
	{Kind: Notch, Center: 102, Quality: 30},
	{Kind: Lowpass, Cutoff: 50, Order: 4},
	{Kind: Highpass, Cutoff: 4, Order: 4},
}

// CleanupStages returns a copy of the harmonic cleanup chain in the order it
// is applied.
func CleanupStages() []Spec {
	out := make([]Spec, len(cleanupStages))
	copy(out, cleanupStages)
	return out
}

// cleanupCascades designs every stage for rate. Notches at or above Nyquist
// are dropped; the lowpass and highpass stages must be designable.
func cleanupCascades(rate float64) ([]Cascade, error) {
	out := make([]Cascade, 0, len(cleanupStages))
	for _, stage := range cleanupStages {
		if stage.Kind == Notch && stage.Center >= rate/2 {
			logging.Debug("skipping notch above nyquist", logging.Fields{
				"center": stage.Center,
				"rate":   rate,
			})
			continue
		}

		cascade, err := stage.Design(rate)
		if err != nil {
			return nil, fmt.Errorf("harmonic cleanup stage %s: %w", stage, err)
		}
		out = append(out, cascade)
	}
	return out, nil
}

// HarmonicCleanup runs the whole cleanup chain over values, each stage with
// zero phase, and returns the result in a new slice.
func HarmonicCleanup(values []float64, rate float64) ([]float64, error) {
	cascades, err := cleanupCascades(rate)
	if err != nil {
		return nil, err
	}

	// FiltFilt never aliases its input, so values stays intact.
	out := values
	for _, c := range cascades {
		out = c.FiltFilt(out)
	}
	return out, nil
}

// HarmonicCleanupInPlace replaces the values of ts with the cleaned signal.
// On error ts is left untouched.
func HarmonicCleanupInPlace(ts *timeseries.TimeSeries) error {
	out, err := HarmonicCleanup(ts.Values, ts.SamplingRate)
	if err != nil {
		return fmt.Errorf("cleanup %s: %w", ts.Name, err)
	}

	ts.Values = out
	logging.Debug("harmonic cleanup applied", logging.Fields{
		"signal": ts.Name,
		"rate":   ts.SamplingRate,
	})
	return nil
}
