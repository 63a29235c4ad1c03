package filters

import "slices"

// PadLen returns the number of samples FiltFilt mirrors onto each edge of a
// signal of length n: three times the effective tap count of the cascade,
// limited to n-1.
func (c Cascade) PadLen(n int) int {
	taps := 2*len(c) + 1 - c.trailingZeros()
	pad := 3 * taps
	if pad > n-1 {
		pad = max(n-1, 0)
	}
	return pad
}

// FiltFilt runs the cascade forward and then backward over x and returns the
// zero-phase result in a new slice. x is not modified.
//
// The edges are extended by odd reflection and each pass starts from the
// cascade's steady state for the first sample, which keeps start-up
// transients out of the output.
func (c Cascade) FiltFilt(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return []float64{}
	}
	if len(c) == 0 {
		return slices.Clone(x)
	}

	pad := c.PadLen(n)
	ext := oddExtend(x, pad)

	c.run(ext, ext[0])
	slices.Reverse(ext)
	c.run(ext, ext[0])
	slices.Reverse(ext)

	return slices.Clone(ext[pad : pad+n])
}

// oddExtend mirrors pad samples about each end point:
// 2*x[0] - x[pad..1] on the left and 2*x[n-1] - x[n-2..n-1-pad] on the right.
func oddExtend(x []float64, pad int) []float64 {
	n := len(x)
	out := make([]float64, 0, n+2*pad)

	first, last := x[0], x[n-1]
	for i := pad; i >= 1; i-- {
		out = append(out, 2*first-x[i])
	}
	out = append(out, x...)
	for i := n - 2; i >= n-1-pad; i-- {
		out = append(out, 2*last-x[i])
	}
	return out
}
