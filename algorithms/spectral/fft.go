package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp, which handles any length including
// non-powers of two.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex DFT of x.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// OneSidedMagnitude returns |X[k]|/N for k = 0 .. N/2 (integer division).
func (f *FFT) OneSidedMagnitude(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return []float64{}
	}

	spectrum := f.Compute(x)
	mags := make([]float64, n/2+1)
	for k := range mags {
		mags[k] = cmplx.Abs(spectrum[k]) / float64(n)
	}
	return mags
}
