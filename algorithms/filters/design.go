package filters

import (
	"cmp"
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// zpk is a filter in zero/pole/gain form, analog or digital.
type zpk struct {
	z []complex128
	p []complex128
	k float64
}

func (f zpk) degree() int {
	return len(f.p) - len(f.z)
}

// butterworthPrototype returns the order-n analog lowpass prototype with a
// -3 dB corner at 1 rad/s. The poles sit evenly on the left half of the unit
// circle.
func butterworthPrototype(n int) zpk {
	p := make([]complex128, 0, n)
	for m := -n + 1; m < n; m += 2 {
		p = append(p, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*n))))
	}
	return zpk{p: p, k: 1}
}

// prewarp maps a digital frequency in Hz onto the analog frequency the
// bilinear transform sends back to it.
func prewarp(freq, rate float64) float64 {
	return 2 * rate * math.Tan(math.Pi*freq/rate)
}

func scaleRoots(v []complex128, s complex128) []complex128 {
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func prodNeg(v []complex128) complex128 {
	out := complex(1, 0)
	for _, x := range v {
		out *= -x
	}
	return out
}

func lowpassToLowpass(f zpk, wo float64) zpk {
	return zpk{
		z: scaleRoots(f.z, complex(wo, 0)),
		p: scaleRoots(f.p, complex(wo, 0)),
		k: f.k * math.Pow(wo, float64(f.degree())),
	}
}

func lowpassToHighpass(f zpk, wo float64) zpk {
	out := zpk{
		z: make([]complex128, 0, len(f.p)),
		p: make([]complex128, 0, len(f.p)),
	}
	for _, z := range f.z {
		out.z = append(out.z, complex(wo, 0)/z)
	}
	for _, p := range f.p {
		out.p = append(out.p, complex(wo, 0)/p)
	}
	for range f.degree() {
		out.z = append(out.z, 0)
	}
	out.k = f.k * real(prodNeg(f.z)/prodNeg(f.p))
	return out
}

// splitRoots maps each root r of the shifted prototype onto r ± sqrt(r^2 - wo^2).
func splitRoots(roots []complex128, wo float64) []complex128 {
	wo2 := complex(wo*wo, 0)
	upper := make([]complex128, len(roots))
	lower := make([]complex128, len(roots))
	for i, r := range roots {
		d := cmplx.Sqrt(r*r - wo2)
		upper[i] = r + d
		lower[i] = r - d
	}
	return append(upper, lower...)
}

func lowpassToBandpass(f zpk, wo, bw float64) zpk {
	half := complex(bw/2, 0)
	out := zpk{
		z: splitRoots(scaleRoots(f.z, half), wo),
		p: splitRoots(scaleRoots(f.p, half), wo),
		k: f.k * math.Pow(bw, float64(f.degree())),
	}
	for range f.degree() {
		out.z = append(out.z, 0)
	}
	return out
}

func lowpassToBandstop(f zpk, wo, bw float64) zpk {
	half := complex(bw/2, 0)
	zh := make([]complex128, len(f.z))
	for i, z := range f.z {
		zh[i] = half / z
	}
	ph := make([]complex128, len(f.p))
	for i, p := range f.p {
		ph[i] = half / p
	}

	out := zpk{
		z: splitRoots(zh, wo),
		p: splitRoots(ph, wo),
		k: f.k * real(prodNeg(f.z)/prodNeg(f.p)),
	}
	for range f.degree() {
		out.z = append(out.z, complex(0, wo), complex(0, -wo))
	}
	return out
}

// bilinear maps an analog zpk onto the z plane. Zeros at infinity land on
// Nyquist (z = -1).
func bilinear(f zpk, rate float64) zpk {
	fs2 := complex(2*rate, 0)
	out := zpk{
		z: make([]complex128, 0, len(f.p)),
		p: make([]complex128, 0, len(f.p)),
	}
	num, den := complex(1, 0), complex(1, 0)
	for _, z := range f.z {
		out.z = append(out.z, (fs2+z)/(fs2-z))
		num *= fs2 - z
	}
	for _, p := range f.p {
		out.p = append(out.p, (fs2+p)/(fs2-p))
		den *= fs2 - p
	}
	for range f.degree() {
		out.z = append(out.z, -1)
	}
	out.k = f.k * real(num/den)
	return out
}

// imagTolerance decides when a root is treated as real.
const imagTolerance = 1e-10

func isReal(c complex128) bool {
	return math.Abs(imag(c)) <= imagTolerance*math.Max(1, cmplx.Abs(c))
}

// rootGroup is either one real root, two real roots or a conjugate pair.
type rootGroup []complex128

// groupPoles splits poles into conjugate pairs and pairs of real poles. An odd
// real pole ends up alone. Groups are ordered closest to the unit circle last.
func groupPoles(poles []complex128) []rootGroup {
	var groups []rootGroup
	var reals []float64
	for _, p := range poles {
		switch {
		case isReal(p):
			reals = append(reals, real(p))
		case imag(p) > 0:
			groups = append(groups, rootGroup{p, cmplx.Conj(p)})
		}
	}

	slices.Sort(reals)
	for i := 0; i+1 < len(reals); i += 2 {
		groups = append(groups, rootGroup{complex(reals[i], 0), complex(reals[i+1], 0)})
	}
	if len(reals)%2 == 1 {
		groups = append(groups, rootGroup{complex(reals[len(reals)-1], 0)})
	}

	slices.SortStableFunc(groups, func(a, b rootGroup) int {
		return cmp.Compare(1-cmplx.Abs(b[0]), 1-cmplx.Abs(a[0]))
	})
	return groups
}

// takeNearest removes and returns the zero in pool closest to target. When
// onlyReal is set complex zeros are ignored. ok is false when nothing fits.
func takeNearest(pool []complex128, target complex128, onlyReal bool) (zero complex128, rest []complex128, ok bool) {
	best := -1
	for i, z := range pool {
		if onlyReal && !isReal(z) {
			continue
		}
		if best < 0 || cmplx.Abs(z-target) < cmplx.Abs(pool[best]-target) {
			best = i
		}
	}
	if best < 0 {
		return 0, pool, false
	}
	zero = pool[best]
	return zero, slices.Delete(pool, best, best+1), true
}

// takeConjugate removes the conjugate of z from pool.
func takeConjugate(pool []complex128, z complex128) (complex128, []complex128) {
	conj := cmplx.Conj(z)
	best := 0
	for i, c := range pool {
		if cmplx.Abs(c-conj) < cmplx.Abs(pool[best]-conj) {
			best = i
		}
	}
	return conj, slices.Delete(pool, best, best+1)
}

// toSections factors a digital zpk into a cascade, pairing every pole group
// with the nearest zeros and putting the gain into the first section.
func toSections(f zpk) Cascade {
	pool := slices.Clone(f.z)
	groups := groupPoles(f.p)
	out := make(Cascade, 0, len(groups))

	for _, g := range groups {
		var zeros []complex128
		var z complex128
		var ok bool

		if len(g) == 1 {
			if z, pool, ok = takeNearest(pool, g[0], true); ok {
				zeros = append(zeros, z)
			}
		} else {
			if z, pool, ok = takeNearest(pool, g[0], false); ok {
				zeros = append(zeros, z)
				if !isReal(z) {
					z, pool = takeConjugate(pool, z)
					zeros = append(zeros, z)
				} else if z, pool, ok = takeNearest(pool, g[1], true); ok {
					zeros = append(zeros, z)
				}
			}
		}

		out = append(out, sectionFromRoots(zeros, g))
	}

	if len(out) == 0 {
		return Cascade{{B0: f.k}}
	}
	out[0].B0 *= f.k
	out[0].B1 *= f.k
	out[0].B2 *= f.k
	return out
}

// sectionFromRoots expands (1 - r1 z^-1)(1 - r2 z^-1) for both polynomials.
func sectionFromRoots(zeros, poles []complex128) biquad.Coefficients {
	b := expand(zeros)
	a := expand(poles)
	return biquad.Coefficients{B0: b[0], B1: b[1], B2: b[2], A1: a[1], A2: a[2]}
}

func expand(roots []complex128) [3]float64 {
	switch len(roots) {
	case 0:
		return [3]float64{1, 0, 0}
	case 1:
		return [3]float64{1, -real(roots[0]), 0}
	default:
		return [3]float64{1, -real(roots[0] + roots[1]), real(roots[0] * roots[1])}
	}
}

// designButterworth builds the digital Butterworth cascade described by spec.
// The spec must already be validated against rate.
func designButterworth(spec Spec, rate float64) (Cascade, error) {
	proto := butterworthPrototype(spec.Order)

	var analog zpk
	switch spec.Kind {
	case Lowpass:
		analog = lowpassToLowpass(proto, prewarp(spec.Cutoff, rate))
	case Highpass:
		analog = lowpassToHighpass(proto, prewarp(spec.Cutoff, rate))
	case Bandpass, Bandstop:
		lo, hi := prewarp(spec.Low, rate), prewarp(spec.High, rate)
		wo, bw := math.Sqrt(lo*hi), hi-lo
		if spec.Kind == Bandpass {
			analog = lowpassToBandpass(proto, wo, bw)
		} else {
			analog = lowpassToBandstop(proto, wo, bw)
		}
	default:
		return nil, fmt.Errorf("%w: %s is not a Butterworth kind", ErrInvalidParameter, spec.Kind)
	}

	return toSections(bilinear(analog, rate)), nil
}

// designNotch returns the second-order IIR notch at center with quality q,
// the closed form scipy.signal.iirnotch uses.
func designNotch(center, q, rate float64) Cascade {
	w0 := 2 * math.Pi * center / rate
	bw := w0 / q
	beta := math.Tan(bw / 2)
	gain := 1 / (1 + beta)
	cosW0 := math.Cos(w0)

	return Cascade{{
		B0: gain,
		B1: -2 * gain * cosW0,
		B2: gain,
		A1: -2 * gain * cosW0,
		A2: 2*gain - 1,
	}}
}
