package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/algorithms/spectral"
	"github.com/RyanBlaney/sonido-scope/selection"
	"github.com/RyanBlaney/sonido-scope/session"
	"github.com/RyanBlaney/sonido-scope/timeseries"
)

var (
	failColor = color.New(color.FgRed, color.Bold)
	okColor   = color.New(color.FgGreen)
)

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// render writes headers and rows as a right-aligned table.
func render(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// writeChannels lists the loaded signals.
func writeChannels(w io.Writer, series []*timeseries.TimeSeries) error {
	rows := make([][]string, 0, len(series))
	for _, ts := range series {
		timing := "implied"
		if ts.HasTimestamps() {
			timing = "explicit"
		}
		stats := common.Summarize(ts.Values)
		rows = append(rows, []string{
			ts.Name,
			strconv.Itoa(ts.Len()),
			fmtFloat(ts.SamplingRate),
			fmtFloat(ts.Duration()),
			timing,
			fmtFloat(stats.Min),
			fmtFloat(stats.Max),
			fmtFloat(stats.Mean),
			fmtFloat(stats.RMS),
		})
	}
	return render(w, []string{"Signal", "Samples", "Rate (Hz)", "Duration (s)", "Timestamps", "Min", "Max", "Mean", "RMS"}, rows)
}

// writeWindows shows the resolved window of every signal.
func writeWindows(w io.Writer, res []selection.Resolution) error {
	rows := make([][]string, 0, len(res))
	for _, r := range res {
		if !r.OK() {
			rows = append(rows, []string{r.Series.Name, "-", "-", "-", "-", "-", failColor.Sprint(r.Err.Error())})
			continue
		}
		times := r.Range.Times(r.Series)
		first, last := "-", "-"
		if len(times) > 0 {
			first = fmtFloat(times[0])
			last = fmtFloat(times[len(times)-1])
		}
		rows = append(rows, []string{
			r.Series.Name,
			strconv.Itoa(r.Range.Start),
			strconv.Itoa(r.Range.End),
			strconv.Itoa(r.Range.Len()),
			first,
			last,
			okColor.Sprint("ok"),
		})
	}
	return render(w, []string{"Signal", "Start", "End", "Samples", "First (s)", "Last (s)", "Status"}, rows)
}

// spectrumRow is the outcome of one signal's spectrum.
type spectrumRow struct {
	Signal string
	Window *session.WindowSpectrum
	Err    error
}

func formatPeaks(peaks []spectral.Peak) string {
	parts := make([]string, len(peaks))
	for i, p := range peaks {
		parts[i] = fmt.Sprintf("%s Hz (%s)", fmtFloat(p.Frequency), fmtFloat(p.Magnitude))
	}
	return strings.Join(parts, ", ")
}

// writeSpectra summarizes each spectrum by its dominant line and shape.
func writeSpectra(w io.Writer, results []spectrumRow, peaks int) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			rows = append(rows, []string{r.Signal, "-", "-", "-", "-", "-", failColor.Sprint(r.Err.Error())})
			continue
		}
		res := r.Window.Spectrum
		peak := res.Peak()
		rows = append(rows, []string{
			r.Signal,
			strconv.Itoa(res.N),
			fmtFloat(res.Resolution),
			fmtFloat(peak.Frequency),
			fmtFloat(peak.Magnitude),
			fmtFloat(res.Centroid()),
			formatPeaks(res.TopPeaks(peaks)),
		})
	}
	return render(w, []string{"Signal", "N", "Resolution (Hz)", "Peak (Hz)", "Magnitude", "Centroid (Hz)", "Peaks"}, rows)
}

type spectrumJSON struct {
	Signal      string             `json:"signal"`
	Start       int                `json:"start"`
	End         int                `json:"end"`
	Frequencies []float64          `json:"frequencies,omitempty"`
	Magnitudes  []float64          `json:"magnitudes,omitempty"`
	Features    *spectral.Features `json:"features,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// writeSpectraJSON writes the full spectra as a JSON array.
func writeSpectraJSON(w io.Writer, results []spectrumRow) error {
	out := make([]spectrumJSON, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			out = append(out, spectrumJSON{Signal: r.Signal, Error: r.Err.Error()})
			continue
		}
		res := r.Window.Spectrum
		features := res.Features()
		out = append(out, spectrumJSON{
			Signal:      r.Signal,
			Start:       r.Window.Range.Start,
			End:         r.Window.Range.End,
			Frequencies: res.Frequencies,
			Magnitudes:  res.Magnitudes,
			Features:    &features,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
