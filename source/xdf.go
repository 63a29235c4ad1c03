package source

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// XDF 1.0 chunk tags.
const (
	tagFileHeader   uint16 = 1
	tagStreamHeader uint16 = 2
	tagSamples      uint16 = 3
	tagClockOffset  uint16 = 4
	tagBoundary     uint16 = 5
	tagStreamFooter uint16 = 6
)

const xdfMagic = "XDF:"

// maxXDFChannels bounds channel_count in a stream header.
const maxXDFChannels = 1 << 16

// xdfStreamInfo is the part of a stream header this loader uses.
type xdfStreamInfo struct {
	XMLName       xml.Name `xml:"info"`
	Name          string   `xml:"name"`
	Type          string   `xml:"type"`
	ChannelCount  int      `xml:"channel_count"`
	NominalSrate  float64  `xml:"nominal_srate"`
	ChannelFormat string   `xml:"channel_format"`
}

// valueSize is the byte width of one sample of the stream's format, or 0 for
// string streams.
func (info xdfStreamInfo) valueSize() (int, error) {
	switch strings.ToLower(info.ChannelFormat) {
	case "float32", "int32":
		return 4, nil
	case "double64", "int64":
		return 8, nil
	case "int16":
		return 2, nil
	case "int8":
		return 1, nil
	case "string":
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: stream %q has unknown channel format %q", ErrFormat, info.Name, info.ChannelFormat)
	}
}

type xdfStream struct {
	id     uint32
	info   xdfStreamInfo
	size   int
	times  []float64
	values [][]float64 // per channel, allocated with the first sample

	offsetTimes  []float64
	offsetValues []float64
}

func (s *xdfStream) isString() bool {
	return s.size == 0
}

// cursor reads little-endian fields from a byte slice with bounds checks.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, fmt.Errorf("%w: truncated data at offset %d (need %d bytes, have %d)", ErrFormat, c.pos, n, c.remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) f64() (float64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// varLen reads a one-byte width (1, 4 or 8) followed by an unsigned integer
// of that width.
func (c *cursor) varLen() (int, error) {
	width, err := c.u8()
	if err != nil {
		return 0, err
	}
	b, err := c.take(int(width))
	if err != nil {
		return 0, err
	}

	var n uint64
	switch width {
	case 1:
		n = uint64(b[0])
	case 4:
		n = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		n = binary.LittleEndian.Uint64(b)
	default:
		return 0, fmt.Errorf("%w: invalid length width %d at offset %d", ErrFormat, width, c.pos-1)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: length %d is too large", ErrFormat, n)
	}
	return int(n), nil
}

func loadXDF(path string, clockSync bool, logger logging.Logger) (*timeseries.LoadedSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	series, err := ParseXDF(data, clockSync, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buildSet(series, ErrFormat)
}

// ParseXDF decodes an XDF 1.0 container. Every channel of every numeric
// stream becomes one series named "<stream>_<channel>" carrying the stream's
// timestamps and nominal rate. String streams are skipped. With clockSync the
// stream's clock offsets are fitted linearly and added to its timestamps.
func ParseXDF(data []byte, clockSync bool, logger logging.Logger) ([]*timeseries.TimeSeries, error) {
	logger = logging.OrGlobal(logger)

	if len(data) < len(xdfMagic) || string(data[:len(xdfMagic)]) != xdfMagic {
		return nil, fmt.Errorf("%w: missing %q magic", ErrFormat, xdfMagic)
	}

	c := &cursor{buf: data, pos: len(xdfMagic)}
	streams := map[uint32]*xdfStream{}
	var order []uint32

	for c.remaining() > 0 {
		length, err := c.varLen()
		if err != nil {
			return nil, err
		}
		if length < 2 {
			return nil, fmt.Errorf("%w: chunk length %d at offset %d", ErrFormat, length, c.pos)
		}
		body, err := c.take(length)
		if err != nil {
			return nil, err
		}

		chunk := &cursor{buf: body}
		tag, err := chunk.u16()
		if err != nil {
			return nil, err
		}

		switch tag {
		case tagStreamHeader:
			s, err := parseStreamHeader(chunk)
			if err != nil {
				return nil, err
			}
			if _, dup := streams[s.id]; dup {
				return nil, fmt.Errorf("%w: stream %d declared twice", ErrFormat, s.id)
			}
			streams[s.id] = s
			order = append(order, s.id)

		case tagSamples:
			if err := parseSamples(chunk, streams); err != nil {
				return nil, err
			}

		case tagClockOffset:
			if err := parseClockOffset(chunk, streams); err != nil {
				return nil, err
			}

		case tagFileHeader, tagBoundary, tagStreamFooter:
			// nothing needed from these

		default:
			logger.Debug("skipping unknown xdf chunk", logging.Fields{"tag": tag})
		}
	}

	var out []*timeseries.TimeSeries
	for _, id := range order {
		s := streams[id]
		if s.isString() {
			logger.Debug("skipping string stream", logging.Fields{"stream": s.info.Name})
			continue
		}
		if len(s.times) == 0 {
			logger.Debug("skipping empty stream", logging.Fields{"stream": s.info.Name})
			continue
		}

		if clockSync && len(s.offsetTimes) > 0 {
			slope, intercept := common.LinRegression(s.offsetTimes, s.offsetValues)
			for i, t := range s.times {
				s.times[i] = t + intercept + slope*t
			}
		}

		rate := s.info.NominalSrate
		if rate <= 0 {
			rate = effectiveRate(s.times)
			if rate <= 0 {
				logger.Warn("skipping irregular stream without a usable rate", logging.Fields{"stream": s.info.Name})
				continue
			}
		}

		for ch, values := range s.values {
			out = append(out, &timeseries.TimeSeries{
				Name:         fmt.Sprintf("%s_%d", s.info.Name, ch),
				Values:       values,
				SamplingRate: rate,
				Timestamps:   append([]float64(nil), s.times...),
			})
		}
		logger.Debug("xdf stream decoded", logging.Fields{
			"stream":   s.info.Name,
			"channels": len(s.values),
			"samples":  len(s.times),
			"rate":     rate,
		})
	}
	return out, nil
}

func effectiveRate(times []float64) float64 {
	n := len(times)
	if n < 2 {
		return 0
	}
	span := times[n-1] - times[0]
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span
}

func parseStreamHeader(c *cursor) (*xdfStream, error) {
	id, err := c.u32()
	if err != nil {
		return nil, err
	}

	var info xdfStreamInfo
	if err := xml.Unmarshal(c.buf[c.pos:], &info); err != nil {
		return nil, fmt.Errorf("%w: stream %d header: %v", ErrFormat, id, err)
	}
	if info.ChannelCount <= 0 || info.ChannelCount > maxXDFChannels {
		return nil, fmt.Errorf("%w: stream %d has %d channels", ErrFormat, id, info.ChannelCount)
	}
	if info.Name == "" {
		info.Name = fmt.Sprintf("stream%d", id)
	}

	size, err := info.valueSize()
	if err != nil {
		return nil, err
	}
	return &xdfStream{id: id, info: info, size: size}, nil
}

func parseSamples(c *cursor, streams map[uint32]*xdfStream) error {
	id, err := c.u32()
	if err != nil {
		return err
	}
	s, ok := streams[id]
	if !ok {
		return fmt.Errorf("%w: samples for undeclared stream %d", ErrFormat, id)
	}

	count, err := c.varLen()
	if err != nil {
		return err
	}

	step := 0.0
	if s.info.NominalSrate > 0 {
		step = 1 / s.info.NominalSrate
	}
	last := 0.0
	if len(s.times) > 0 {
		last = s.times[len(s.times)-1]
	}

	for range count {
		stampBytes, err := c.u8()
		if err != nil {
			return err
		}
		switch stampBytes {
		case 0:
			last += step
		case 8:
			if last, err = c.f64(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: stream %d timestamp width %d", ErrFormat, id, stampBytes)
		}

		if s.isString() {
			for range s.info.ChannelCount {
				n, err := c.varLen()
				if err != nil {
					return err
				}
				if _, err := c.take(n); err != nil {
					return err
				}
			}
			s.times = append(s.times, last)
			continue
		}

		raw, err := c.take(s.size * s.info.ChannelCount)
		if err != nil {
			return err
		}
		if s.values == nil {
			s.values = make([][]float64, s.info.ChannelCount)
		}
		for ch := range s.info.ChannelCount {
			s.values[ch] = append(s.values[ch], decodeValue(s.info.ChannelFormat, raw[ch*s.size:(ch+1)*s.size]))
		}
		s.times = append(s.times, last)
	}
	return nil
}

func decodeValue(format string, b []byte) float64 {
	switch strings.ToLower(format) {
	case "float32":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case "double64":
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case "int8":
		return float64(int8(b[0]))
	case "int16":
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case "int32":
		return float64(int32(binary.LittleEndian.Uint32(b)))
	default: // int64
		return float64(int64(binary.LittleEndian.Uint64(b)))
	}
}

func parseClockOffset(c *cursor, streams map[uint32]*xdfStream) error {
	id, err := c.u32()
	if err != nil {
		return err
	}
	s, ok := streams[id]
	if !ok {
		return fmt.Errorf("%w: clock offset for undeclared stream %d", ErrFormat, id)
	}

	collected, err := c.f64()
	if err != nil {
		return err
	}
	offset, err := c.f64()
	if err != nil {
		return err
	}
	s.offsetTimes = append(s.offsetTimes, collected)
	s.offsetValues = append(s.offsetValues, offset)
	return nil
}
