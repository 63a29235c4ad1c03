// Package windowing provides taper windows applied to an analysis interval
// before its spectrum is taken.
package windowing

import (
	"fmt"
	"math"
	"strings"

	"github.com/mjibson/go-dsp/window"
)

// Type identifies a window shape.
type Type int

const (
	Rectangular Type = iota
	Hann
	Hamming
	Blackman
	BlackmanHarris
	Bartlett
)

var typeNames = map[Type]string{
	Rectangular:    "rectangular",
	Hann:           "hann",
	Hamming:        "hamming",
	Blackman:       "blackman",
	BlackmanHarris: "blackman_harris",
	Bartlett:       "bartlett",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("window(%d)", int(t))
}

// ParseType maps a configuration name onto a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rectangular", "rect", "boxcar", "none":
		return Rectangular, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackman_harris", "blackman-harris", "blackmanharris":
		return BlackmanHarris, nil
	case "bartlett", "triangular":
		return Bartlett, nil
	}
	return Rectangular, fmt.Errorf("unknown window type %q", s)
}

// Window holds precomputed coefficients for one size.
type Window struct {
	kind         Type
	coefficients []float64
}

// New builds a periodic (DFT-even) window of the given size, the form used
// for spectral analysis.
func New(t Type, size int) (*Window, error) {
	if size < 0 {
		return nil, fmt.Errorf("window size %d is negative", size)
	}
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("unsupported window %s", t)
	}

	w := &Window{kind: t, coefficients: make([]float64, size)}
	w.generate()
	return w, nil
}

// symmetric are the go-dsp shapes. A periodic window of size n is the
// symmetric window of size n+1 without its last point.
var symmetric = map[Type]func(int) []float64{
	Hann:     window.Hann,
	Hamming:  window.Hamming,
	Blackman: window.Blackman,
	Bartlett: window.Bartlett,
}

// blackmanHarrisTerms are the a_k of w[i] = sum (-1)^k a_k cos(2 pi k i / N).
var blackmanHarrisTerms = []float64{0.35875, 0.48829, 0.14128, 0.01168}

func (w *Window) generate() {
	n := len(w.coefficients)
	denominator := float64(n)

	if shape, ok := symmetric[w.kind]; ok {
		copy(w.coefficients, shape(n+1))
		return
	}

	switch w.kind {
	case Rectangular:
		for i := range w.coefficients {
			w.coefficients[i] = 1.0
		}

	case BlackmanHarris:
		terms := blackmanHarrisTerms
		for i := range w.coefficients {
			arg := 2 * math.Pi * float64(i) / denominator
			sum := 0.0
			sign := 1.0
			for k, a := range terms {
				sum += sign * a * math.Cos(float64(k)*arg)
				sign = -sign
			}
			w.coefficients[i] = sum
		}
	}
}

// Apply returns signal multiplied by the window. The lengths must match.
func (w *Window) Apply(signal []float64) ([]float64, error) {
	if len(signal) != len(w.coefficients) {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	windowed := make([]float64, len(signal))
	for i, v := range signal {
		windowed[i] = v * w.coefficients[i]
	}
	return windowed, nil
}

// CoherentGain is the mean coefficient. Dividing a windowed spectrum by it
// restores the amplitude of a bin-centred sinusoid.
func (w *Window) CoherentGain() float64 {
	if len(w.coefficients) == 0 {
		return 1
	}
	sum := 0.0
	for _, c := range w.coefficients {
		sum += c
	}
	return sum / float64(len(w.coefficients))
}

// Coefficients returns a copy of the window coefficients.
func (w *Window) Coefficients() []float64 {
	out := make([]float64, len(w.coefficients))
	copy(out, w.coefficients)
	return out
}

// Size returns the window length.
func (w *Window) Size() int {
	return len(w.coefficients)
}

// Type returns the window shape.
func (w *Window) Type() Type {
	return w.kind
}
