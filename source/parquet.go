package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// sampleRow is one sample of one channel in the long-format signal file.
type sampleRow struct {
	// Channel is the series name
	Channel string `parquet:"channel,dict,snappy"`

	// Index is the sample position within the channel
	Index int64 `parquet:"index,snappy"`

	// Time is the explicit timestamp in seconds, null for implied timing
	Time *float64 `parquet:"time,optional,snappy"`

	Value float64 `parquet:"value,snappy"`

	SamplingRate float64 `parquet:"sampling_rate,snappy"`
}

// Save writes series to a Parquet file at path, one row per sample. Load
// restores the same names, rates, values and timestamps.
func Save(path string, series []*timeseries.TimeSeries) error {
	var rows []sampleRow
	for _, ts := range series {
		if err := ts.Validate(); err != nil {
			return err
		}
		for i, v := range ts.Values {
			row := sampleRow{
				Channel:      ts.Name,
				Index:        int64(i),
				Value:        v,
				SamplingRate: ts.SamplingRate,
			}
			if ts.HasTimestamps() {
				t := ts.Timestamps[i]
				row.Time = &t
			}
			rows = append(rows, row)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[sampleRow](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write signals to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return file.Close()
}

func loadParquet(path string) (*timeseries.LoadedSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}

	reader := parquet.NewGenericReader[sampleRow](pf)
	defer func() { _ = reader.Close() }()

	rows := make([]sampleRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}

	series, err := rowsToSeries(rows[:n])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buildSet(series, ErrFormat)
}

// rowsToSeries groups rows by channel in order of first appearance.
func rowsToSeries(rows []sampleRow) ([]*timeseries.TimeSeries, error) {
	groups := map[string][]sampleRow{}
	var order []string
	for _, r := range rows {
		if _, seen := groups[r.Channel]; !seen {
			order = append(order, r.Channel)
		}
		groups[r.Channel] = append(groups[r.Channel], r)
	}

	out := make([]*timeseries.TimeSeries, 0, len(order))
	for _, name := range order {
		group := groups[name]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Index < group[j].Index })

		ts := &timeseries.TimeSeries{
			Name:         name,
			Values:       make([]float64, len(group)),
			SamplingRate: group[0].SamplingRate,
		}
		timed := group[0].Time != nil
		if timed {
			ts.Timestamps = make([]float64, len(group))
		}

		for i, r := range group {
			if r.Index != int64(i) {
				return nil, fmt.Errorf("%w: channel %q is missing sample %d", ErrFormat, name, i)
			}
			if (r.Time != nil) != timed {
				return nil, fmt.Errorf("%w: channel %q mixes timed and untimed samples", ErrFormat, name)
			}
			ts.Values[i] = r.Value
			if timed {
				ts.Timestamps[i] = *r.Time
			}
		}
		out = append(out, ts)
	}
	return out, nil
}
