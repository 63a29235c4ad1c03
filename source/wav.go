package source

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// loadWAV decodes a PCM recording. Channel i becomes "<file stem>_<i>" at the
// file's own rate, scaled by bit depth into [-1, 1).
func loadWAV(path string, logger logging.Logger) (*timeseries.LoadedSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrFormat, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s has no usable format chunk", ErrFormat, path)
	}

	channels := buf.Format.NumChannels
	rate := float64(buf.Format.SampleRate)
	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %s has unsupported bit depth %d", ErrFormat, path, bitDepth)
	}

	// 8-bit PCM is unsigned and centred on 128
	scale := math.Pow(2, float64(bitDepth-1))
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(buf.Data) / channels
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	series := make([]*timeseries.TimeSeries, channels)
	for ch := range channels {
		values := make([]float64, frames)
		for i := range values {
			values[i] = (float64(buf.Data[i*channels+ch]) - offset) / scale
		}
		series[ch] = &timeseries.TimeSeries{
			Name:         fmt.Sprintf("%s_%d", stem, ch),
			Values:       values,
			SamplingRate: rate,
		}
	}

	logger.Debug("wav decoded", logging.Fields{
		"channels":  channels,
		"rate":      rate,
		"bit_depth": bitDepth,
		"frames":    frames,
	})
	return buildSet(series, ErrFormat)
}
