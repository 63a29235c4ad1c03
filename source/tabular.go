package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// timeColumns maps a recognized time header (lower case) onto the factor
// that converts its values to seconds.
var timeColumns = map[string]float64{
	"time":           1,
	"timestamp (ms)": 1e-3,
}

// row is one parsed line: the time in seconds and one value per channel.
type row struct {
	t      float64
	values []float64
}

func loadTabular(path string, targetRate float64, logger logging.Logger) (*timeseries.LoadedSet, error) {
	if !(targetRate > 0) || math.IsInf(targetRate, 0) {
		return nil, fmt.Errorf("%w: target sampling rate %g must be positive", ErrParse, targetRate)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer func() { _ = f.Close() }()

	series, err := ReadTabular(f, targetRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if len(series) > 0 {
		logger.Debug("tabular data resampled", logging.Fields{
			"channels":    len(series),
			"target_rate": targetRate,
			"samples":     series[0].Len(),
		})
	}
	return buildSet(series, ErrParse)
}

// ReadTabular parses CSV data with a header row and resamples every value
// column onto the grid k/targetRate.
//
// Rows are sorted by time and a repeated time keeps its first row. Times are
// shifted so the earliest row is at 0, and the grid stops before the last
// row's time. Samples are linearly interpolated; grid points outside the
// recorded span are 0.
func ReadTabular(r io.Reader, targetRate float64) ([]*timeseries.TimeSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrParse)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrParse, err)
	}

	timeIdx, scale, err := findTimeColumn(header)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(header)-1)
	for i, h := range header {
		if i != timeIdx {
			names = append(names, strings.TrimSpace(h))
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no value columns next to the time column", ErrParse)
	}

	rows, err := readRows(reader, timeIdx, scale, len(header))
	if err != nil {
		return nil, err
	}
	rows = sortUnique(rows)
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 distinct time rows, have %d", ErrParse, len(rows))
	}

	t0 := rows[0].t
	xs := make([]float64, len(rows))
	for i, rw := range rows {
		xs[i] = rw.t - t0
	}
	grid := common.UniformGrid(xs[len(xs)-1], targetRate)

	series := make([]*timeseries.TimeSeries, len(names))
	ys := make([]float64, len(rows))
	for c, name := range names {
		for i, rw := range rows {
			ys[i] = rw.values[c]
		}
		values, err := common.LinearOnto(xs, ys, grid)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrParse, name, err)
		}

		timestamps := make([]float64, len(grid))
		copy(timestamps, grid)
		series[c] = &timeseries.TimeSeries{
			Name:         name,
			Values:       values,
			SamplingRate: targetRate,
			Timestamps:   timestamps,
		}
	}
	return series, nil
}

func findTimeColumn(header []string) (int, float64, error) {
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if scale, ok := timeColumns[name]; ok {
			return i, scale, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no time column (want %q or %q) in header %q",
		ErrParse, "time", "TimeStamp (ms)", header)
}

func readRows(reader *csv.Reader, timeIdx int, scale float64, width int) ([]row, error) {
	var rows []row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if len(record) != width {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrParse, line, len(record), width)
		}

		t, err := parseCell(record[timeIdx])
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: line %d: bad time %q", ErrParse, line, record[timeIdx])
		}

		rw := row{t: t * scale, values: make([]float64, 0, width-1)}
		for i, cell := range record {
			if i == timeIdx {
				continue
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %q is not a number", ErrParse, line, i+1, cell)
			}
			rw.values = append(rw.values, v)
		}
		rows = append(rows, rw)
	}
}

func parseCell(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// sortUnique orders rows by time and drops later rows that repeat a time.
func sortUnique(rows []row) []row {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].t < rows[j].t
	})

	out := rows[:0]
	for _, rw := range rows {
		if len(out) > 0 && out[len(out)-1].t == rw.t {
			continue
		}
		out = append(out, rw)
	}
	return out
}
