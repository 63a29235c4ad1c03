package filters

import (
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-scope/timeseries"
)

const testRate = 1000.0

func sine(freq, rate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return out
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"low", Lowpass},
		{"LowPass", Lowpass},
		{"high", Highpass},
		{"bandpass", Bandpass},
		{"bandstop", Bandstop},
		{"stop", Bandstop},
		{" notch ", Notch},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("wavelet")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name          string
		kind          string
		first, second string
		want          Spec
		wantErr       bool
	}{
		{"lowpass", "low", "40", "4", Spec{Kind: Lowpass, Cutoff: 40, Order: 4}, false},
		{"highpass", "high", " 0.5 ", "2", Spec{Kind: Highpass, Cutoff: 0.5, Order: 2}, false},
		{"bandpass brackets", "bandpass", "[1, 40]", "2", Spec{Kind: Bandpass, Low: 1, High: 40, Order: 2}, false},
		{"bandstop spaces", "stop", "1 40", "3", Spec{Kind: Bandstop, Low: 1, High: 40, Order: 3}, false},
		{"notch", "notch", "60", "30", Spec{Kind: Notch, Center: 60, Quality: 30}, false},
		{"bad cutoff", "low", "abc", "4", Spec{}, true},
		{"bad order", "low", "40", "four", Spec{}, true},
		{"single band edge", "bandpass", "40", "2", Spec{}, true},
		{"bad quality", "notch", "60", "", Spec{}, true},
		{"unknown kind", "comb", "1", "1", Spec{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpec(tt.kind, tt.first, tt.second)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_RejectsUndesignableFilters(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		rate float64
	}{
		{"zero cutoff", Spec{Kind: Lowpass, Cutoff: 0, Order: 4}, testRate},
		{"cutoff at nyquist", Spec{Kind: Lowpass, Cutoff: 500, Order: 4}, testRate},
		{"cutoff above nyquist", Spec{Kind: Highpass, Cutoff: 800, Order: 2}, testRate},
		{"zero order", Spec{Kind: Lowpass, Cutoff: 40, Order: 0}, testRate},
		{"negative order", Spec{Kind: Bandpass, Low: 1, High: 40, Order: -1}, testRate},
		{"inverted band", Spec{Kind: Bandpass, Low: 40, High: 1, Order: 2}, testRate},
		{"equal band edges", Spec{Kind: Bandstop, Low: 40, High: 40, Order: 2}, testRate},
		{"zero quality", Spec{Kind: Notch, Center: 60, Quality: 0}, testRate},
		{"notch above nyquist", Spec{Kind: Notch, Center: 600, Quality: 30}, testRate},
		{"zero rate", Spec{Kind: Lowpass, Cutoff: 40, Order: 4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.spec.Validate(tt.rate), ErrInvalidParameter)

			_, err := Apply([]float64{1, 2, 3}, tt.rate, tt.spec)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestDesign_ButterworthCorners(t *testing.T) {
	invSqrt2 := 1 / math.Sqrt2

	t.Run("lowpass", func(t *testing.T) {
		c, err := Spec{Kind: Lowpass, Cutoff: 50, Order: 4}.Design(testRate)
		require.NoError(t, err)
		assert.Len(t, c, 2)
		assert.True(t, c.Stable())
		assert.InDelta(t, 1.0, c.Magnitude(0, testRate), 1e-9)
		assert.InDelta(t, invSqrt2, c.Magnitude(50, testRate), 1e-6)
		assert.InDelta(t, -3.0103, c.MagnitudeDB(50, testRate), 1e-3)
		assert.Less(t, c.Magnitude(200, testRate), 0.01)
	})

	t.Run("odd order lowpass", func(t *testing.T) {
		c, err := Spec{Kind: Lowpass, Cutoff: 100, Order: 5}.Design(testRate)
		require.NoError(t, err)
		assert.Len(t, c, 3)
		assert.True(t, c.Stable())
		assert.InDelta(t, invSqrt2, c.Magnitude(100, testRate), 1e-6)
	})

	t.Run("highpass", func(t *testing.T) {
		c, err := Spec{Kind: Highpass, Cutoff: 4, Order: 4}.Design(testRate)
		require.NoError(t, err)
		assert.True(t, c.Stable())
		assert.InDelta(t, 0.0, c.Magnitude(0, testRate), 1e-9)
		assert.InDelta(t, invSqrt2, c.Magnitude(4, testRate), 1e-6)
		assert.InDelta(t, 1.0, c.Magnitude(testRate/2, testRate), 1e-9)
	})

	t.Run("bandpass", func(t *testing.T) {
		c, err := Spec{Kind: Bandpass, Low: 10, High: 40, Order: 2}.Design(testRate)
		require.NoError(t, err)
		assert.Len(t, c, 2, "order n band filters carry 2n poles")
		assert.True(t, c.Stable())
		assert.InDelta(t, invSqrt2, c.Magnitude(10, testRate), 1e-6)
		assert.InDelta(t, invSqrt2, c.Magnitude(40, testRate), 1e-6)
		assert.InDelta(t, 0.0, c.Magnitude(0, testRate), 1e-9)
		assert.InDelta(t, 0.0, c.Magnitude(testRate/2, testRate), 1e-9)
	})

	t.Run("bandstop", func(t *testing.T) {
		c, err := Spec{Kind: Bandstop, Low: 40, High: 80, Order: 2}.Design(testRate)
		require.NoError(t, err)
		assert.True(t, c.Stable())
		assert.InDelta(t, 1.0, c.Magnitude(0, testRate), 1e-9)
		assert.InDelta(t, invSqrt2, c.Magnitude(40, testRate), 1e-6)
		assert.InDelta(t, invSqrt2, c.Magnitude(80, testRate), 1e-6)

		wo := math.Sqrt(prewarp(40, testRate) * prewarp(80, testRate))
		center := testRate / math.Pi * math.Atan(wo/(2*testRate))
		assert.Less(t, c.Magnitude(center, testRate), 1e-6)
	})
}

// rbjLowpass is the audio-EQ-cookbook lowpass biquad. A cascade of them with
// Butterworth Q values is the bilinear Butterworth lowpass.
func rbjLowpass(freq, q, rate float64) biquad.Coefficients {
	w0 := 2 * math.Pi * freq / rate
	alpha := math.Sin(w0) / (2 * q)
	cw := math.Cos(w0)
	a0 := 1 + alpha
	return biquad.Coefficients{
		B0: (1 - cw) / 2 / a0,
		B1: (1 - cw) / a0,
		B2: (1 - cw) / 2 / a0,
		A1: -2 * cw / a0,
		A2: (1 - alpha) / a0,
	}
}

func TestDesign_LowpassMatchesCookbookCascade(t *testing.T) {
	c, err := Spec{Kind: Lowpass, Cutoff: 50, Order: 4}.Design(testRate)
	require.NoError(t, err)

	ref := Cascade{
		rbjLowpass(50, 1/(2*math.Sin(3*math.Pi/8)), testRate),
		rbjLowpass(50, 1/(2*math.Sin(math.Pi/8)), testRate),
	}
	for _, f := range []float64{0, 10, 25, 50, 80, 150, 300, 499} {
		assert.InDelta(t, ref.Magnitude(f, testRate), c.Magnitude(f, testRate), 1e-9, "%g Hz", f)
	}
}

func TestCascade_Stable(t *testing.T) {
	assert.True(t, Cascade{{B0: 1, A1: -0.5}}.Stable())
	assert.False(t, Cascade{{B0: 1, A1: -0.5}, {B0: 1, A2: 1.2}}.Stable())
	assert.False(t, Cascade{{B0: 1, A1: -1.5}}.Stable())
}

func TestCascade_RunStartsInSteadyState(t *testing.T) {
	c, err := Spec{Kind: Highpass, Cutoff: 5, Order: 3}.Design(testRate)
	require.NoError(t, err)

	x := make([]float64, 50)
	for i := range x {
		x[i] = -2
	}
	c.run(x, -2)
	for i := range x {
		assert.InDelta(t, 0.0, x[i], 1e-9, "a highpass removes a constant without a transient")
	}
}

func TestDesign_Notch(t *testing.T) {
	c, err := Spec{Kind: Notch, Center: 60, Quality: 30}.Design(testRate)
	require.NoError(t, err)
	require.Len(t, c, 1)

	assert.Less(t, c.Magnitude(60, testRate), 1e-9)
	assert.InDelta(t, 1.0, c.Magnitude(0, testRate), 1e-9)
	assert.Greater(t, c.Magnitude(200, testRate), 0.99)
}

func TestPadLen(t *testing.T) {
	even, err := Spec{Kind: Lowpass, Cutoff: 50, Order: 4}.Design(testRate)
	require.NoError(t, err)
	assert.Equal(t, 15, even.PadLen(1000))
	assert.Equal(t, 4, even.PadLen(5), "padding is limited by the signal length")

	odd, err := Spec{Kind: Lowpass, Cutoff: 50, Order: 5}.Design(testRate)
	require.NoError(t, err)
	assert.Equal(t, 18, odd.PadLen(1000), "the first-order section shortens the padding")
}

func TestFiltFilt_ConstantPassesLowpass(t *testing.T) {
	c, err := Spec{Kind: Lowpass, Cutoff: 20, Order: 4}.Design(testRate)
	require.NoError(t, err)

	x := make([]float64, 200)
	for i := range x {
		x[i] = 3.5
	}
	y := c.FiltFilt(x)
	require.Len(t, y, len(x))
	for i := range y {
		assert.InDelta(t, 3.5, y[i], 1e-9)
	}
	assert.Equal(t, 3.5, x[0], "input is not modified")
}

func TestFiltFilt_HighCutoffIsNearIdentity(t *testing.T) {
	x := sine(5, testRate, 1000)
	y, err := Apply(x, testRate, Spec{Kind: Lowpass, Cutoff: 400, Order: 2})
	require.NoError(t, err)

	for i := range x {
		assert.InDelta(t, x[i], y[i], 1e-3)
	}
}

func TestFiltFilt_ZeroPhaseKeepsPeakInPlace(t *testing.T) {
	const n, center, sigma = 1001, 500, 20.0
	pulse := make([]float64, n)
	for i := range pulse {
		d := float64(i-center) / sigma
		pulse[i] = math.Exp(-d * d / 2)
	}

	c, err := Spec{Kind: Lowpass, Cutoff: 50, Order: 4}.Design(testRate)
	require.NoError(t, err)

	assert.Equal(t, center, argmax(c.FiltFilt(pulse)))

	// a single causal pass delays the peak
	forward := slices.Clone(pulse)
	biquad.NewChain(c).ProcessBlock(forward)
	assert.Greater(t, argmax(forward), center+2)
}

func TestApply_NotchRemovesMainsHum(t *testing.T) {
	const n = 4000
	clean := sine(10, testRate, n)
	hum := sine(60, testRate, n)
	noisy := make([]float64, n)
	for i := range noisy {
		noisy[i] = clean[i] + hum[i]
	}

	y, err := Apply(noisy, testRate, Spec{Kind: Notch, Center: 60, Quality: 30})
	require.NoError(t, err)

	for i := 1500; i < 2500; i++ {
		assert.InDelta(t, clean[i], y[i], 0.01)
	}
}

func TestApplyInPlace_VisibleThroughEveryHolder(t *testing.T) {
	ts := &timeseries.TimeSeries{Name: "emg", Values: sine(60, testRate, 2000), SamplingRate: testRate}
	alias := ts

	require.NoError(t, ApplyInPlace(ts, Spec{Kind: Lowpass, Cutoff: 10, Order: 4}))
	assert.Less(t, math.Abs(alias.Values[1000]), 0.01)
}

func TestApplyInPlace_ErrorLeavesValuesUntouched(t *testing.T) {
	orig := []float64{1, 2, 3, 4}
	ts := &timeseries.TimeSeries{Name: "emg", Values: append([]float64(nil), orig...), SamplingRate: 100}

	err := ApplyInPlace(ts, Spec{Kind: Lowpass, Cutoff: 80, Order: 4})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, orig, ts.Values)
}

func TestHarmonicCleanup(t *testing.T) {
	const n = 4000
	clean := sine(10, testRate, n)
	noisy := make([]float64, n)
	for i := range noisy {
		noisy[i] = clean[i] + 0.5*math.Sin(2*math.Pi*60*float64(i)/testRate)
	}
	before := append([]float64(nil), noisy...)

	y, err := HarmonicCleanup(noisy, testRate)
	require.NoError(t, err)
	require.Len(t, y, n)
	assert.Equal(t, before, noisy, "input is not modified")

	for i := 1500; i < 2500; i++ {
		assert.InDelta(t, clean[i], y[i], 0.05)
	}
}

func TestHarmonicCleanup_SkipsNotchesAboveNyquist(t *testing.T) {
	y, err := HarmonicCleanup(sine(10, 250, 1000), 250)
	require.NoError(t, err)
	assert.Len(t, y, 1000)
}

func TestHarmonicCleanup_FailsWhenLowpassCannotBeDesigned(t *testing.T) {
	ts := &timeseries.TimeSeries{Name: "slow", Values: []float64{1, 2, 3}, SamplingRate: 100}
	err := HarmonicCleanupInPlace(ts)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, []float64{1, 2, 3}, ts.Values)
}

func TestCleanupStages_Order(t *testing.T) {
	stages := CleanupStages()
	require.Len(t, stages, 11)
	assert.Equal(t, Spec{Kind: Notch, Center: 60, Quality: 10}, stages[0])
	assert.Equal(t, Lowpass, stages[9].Kind)
	assert.Equal(t, Highpass, stages[10].Kind)

	stages[0].Center = 1
	assert.Equal(t, 60.0, CleanupStages()[0].Center)
}
