package filters

import (
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// Cascade is an ordered series of second-order sections. The overall gain
// lives in the first section.
type Cascade []biquad.Coefficients

func (c Cascade) chain() *biquad.Chain {
	return biquad.NewChain(c)
}

// Response returns the complex frequency response of the whole cascade.
func (c Cascade) Response(freq, rate float64) complex128 {
	return c.chain().Response(freq, rate)
}

// Magnitude returns |H| of the cascade at freq.
func (c Cascade) Magnitude(freq, rate float64) float64 {
	return cmplx.Abs(c.Response(freq, rate))
}

// MagnitudeDB returns 20*log10|H| of the cascade at freq.
func (c Cascade) MagnitudeDB(freq, rate float64) float64 {
	return c.chain().MagnitudeDB(freq, rate)
}

// Stable reports whether every pole lies inside the unit circle.
func (c Cascade) Stable() bool {
	for i := range c {
		for _, p := range c[i].Poles() {
			if cmplx.Abs(p) >= 1 {
				return false
			}
		}
	}
	return true
}

// dcGain is H(1), the steady-state response of a section to a constant input.
func dcGain(c biquad.Coefficients) float64 {
	den := 1 + c.A1 + c.A2
	if den == 0 {
		return 0
	}
	return (c.B0 + c.B1 + c.B2) / den
}

// steadyState returns the DF2T state reached after an infinitely long unit
// step, so that filtering a constant x starting from x*state yields x*H(1)
// with no transient.
func steadyState(c biquad.Coefficients) [2]float64 {
	h := dcGain(c)
	return [2]float64{h - c.B0, c.B2 - c.A2*h}
}

// trailingZeros counts the first-order sections, whose b2 and a2 are both
// zero. They shorten the edge padding used by FiltFilt.
func (c Cascade) trailingZeros() int {
	nb, na := 0, 0
	for _, s := range c {
		if s.B2 == 0 {
			nb++
		}
		if s.A2 == 0 {
			na++
		}
	}
	return min(nb, na)
}

// initialState is the per-section state of the cascade in steady state for a
// constant input x0. Each section sees x0 scaled by the DC gains before it.
func (c Cascade) initialState(x0 float64) [][2]float64 {
	states := make([][2]float64, len(c))
	scale := x0
	for i, coeffs := range c {
		zi := steadyState(coeffs)
		states[i] = [2]float64{scale * zi[0], scale * zi[1]}
		scale *= dcGain(coeffs)
	}
	return states
}

// run filters x in place, starting from the steady state for x0.
func (c Cascade) run(x []float64, x0 float64) {
	ch := c.chain()
	ch.SetState(c.initialState(x0))
	ch.ProcessBlock(x)
}
