package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-scope/timeseries"
)

// channelsCmd lists the signals found in a recording.
var channelsCmd = &cobra.Command{
	Use:   "channels <file>",
	Short: "List the signals in a recording.",
	Long: `Load a recording and list every signal it contains with its sample count,
sampling rate, duration and whether it carries its own timestamps.

Examples:
  # Tabular data resampled to 500 Hz
  sonido-scope channels session.csv --target-rate 500

  # Every numeric stream of an XDF file, without clock synchronization
  sonido-scope channels run1.xdf --clock-sync=false`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args[0])
		if err != nil {
			return err
		}

		names := s.Channels()
		series := make([]*timeseries.TimeSeries, 0, len(names))
		for _, name := range names {
			ts, err := s.Signal(name)
			if err != nil {
				return err
			}
			series = append(series, ts)
		}
		return writeChannels(cmd.OutOrStdout(), series)
	},
}
