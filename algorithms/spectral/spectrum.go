// Package spectral computes the one-sided magnitude spectrum of an analysis
// interval and a few descriptive measures over it.
package spectral

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/algorithms/windowing"
)

var (
	// ErrWindowTooSmall is returned for an interval with no samples.
	ErrWindowTooSmall = errors.New("analysis window too small")
	// ErrInvalidRate is returned for a non-positive sampling rate.
	ErrInvalidRate = errors.New("invalid sampling rate")
)

// Result is a one-sided spectrum. Frequencies and Magnitudes have the same
// length N/2+1 and Frequencies[0] is 0.
type Result struct {
	Frequencies []float64
	Magnitudes  []float64
	// Resolution is the bin spacing rate/N in Hz.
	Resolution float64
	// N is the number of samples the spectrum was taken over.
	N int
}

// Analyzer turns a window of samples into a Result.
type Analyzer struct {
	window windowing.Type
	fft    *FFT
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWindow tapers every interval with the given window before the FFT.
// Magnitudes are divided by the window's coherent gain so a sinusoid keeps
// its amplitude. The default is rectangular, which leaves values as they are.
func WithWindow(t windowing.Type) Option {
	return func(a *Analyzer) {
		a.window = t
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{window: windowing.Rectangular, fft: NewFFT()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Window returns the configured taper.
func (a *Analyzer) Window() windowing.Type {
	return a.window
}

// Spectrum computes magnitudes |X[k]|/N and frequencies k*rate/N for
// k = 0 .. N/2, N = len(values).
func (a *Analyzer) Spectrum(values []float64, rate float64) (*Result, error) {
	n := len(values)
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d samples", ErrWindowTooSmall, n)
	}
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidRate, rate)
	}

	input := values
	gain := 1.0
	if a.window != windowing.Rectangular {
		w, err := windowing.New(a.window, n)
		if err != nil {
			return nil, err
		}
		if input, err = w.Apply(values); err != nil {
			return nil, err
		}
		if cg := w.CoherentGain(); cg > 0 {
			gain = cg
		}
	}

	mags := a.fft.OneSidedMagnitude(input)
	freqs := make([]float64, len(mags))
	for k := range mags {
		mags[k] /= gain
		freqs[k] = float64(k) * rate / float64(n)
	}

	return &Result{
		Frequencies: freqs,
		Magnitudes:  mags,
		Resolution:  rate / float64(n),
		N:           n,
	}, nil
}

// Spectrum runs a default rectangular Analyzer.
func Spectrum(values []float64, rate float64) (*Result, error) {
	return NewAnalyzer().Spectrum(values, rate)
}

// Peak is one spectral line.
type Peak struct {
	Bin       int
	Frequency float64
	Magnitude float64
}

// Peak returns the largest bin above DC. A spectrum with only the DC bin
// returns that bin.
func (r *Result) Peak() Peak {
	if len(r.Magnitudes) == 0 {
		return Peak{}
	}

	best := 0
	if len(r.Magnitudes) > 1 {
		best = 1
		for k := 2; k < len(r.Magnitudes); k++ {
			if r.Magnitudes[k] > r.Magnitudes[best] {
				best = k
			}
		}
	}
	return r.peakAt(best)
}

// TopPeaks returns up to k local maxima ordered by decreasing magnitude.
func (r *Result) TopPeaks(k int) []Peak {
	if k <= 0 {
		return []Peak{}
	}

	bins := common.FindPeaks(r.Magnitudes, 0)
	if len(bins) > k {
		bins = bins[:k]
	}

	peaks := make([]Peak, len(bins))
	for i, b := range bins {
		peaks[i] = r.peakAt(b)
	}
	return peaks
}

func (r *Result) peakAt(bin int) Peak {
	return Peak{Bin: bin, Frequency: r.Frequencies[bin], Magnitude: r.Magnitudes[bin]}
}
