package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// spectrumCmd computes the magnitude spectrum of each signal's window.
var spectrumCmd = &cobra.Command{
	Use:   "spectrum <file> [signal...]",
	Short: "Compute the magnitude spectrum over the analysis window.",
	Long: `Preprocess the selected signals (all signals when none are named), cut the
analysis window out of each and compute its one-sided magnitude spectrum.

The text output lists the dominant line, the centroid and the strongest peaks
of every signal; --output json writes the full spectra instead.

Examples:
  # 60 Hz mains notch, then a 40 Hz lowpass
  sonido-scope spectrum session.csv --filter notch:60:30 --filter lowpass:40:4

  # Harmonic cleanup on two XDF channels over 10 seconds
  sonido-scope spectrum run1.xdf eeg_0 eeg_1 --cleanup --unit seconds --start 5 --end 15

  # Hann-tapered spectra as JSON
  sonido-scope spectrum session.csv --taper hann --output json`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		output := viper.GetString("output")
		if output != "text" && output != "json" {
			return fmt.Errorf("unknown output format %q", output)
		}

		s, err := openSession(args[0])
		if err != nil {
			return err
		}
		names, err := prepare(s, args[1:])
		if err != nil {
			return err
		}

		bounds := cfg.Bounds()
		results := make([]spectrumRow, 0, len(names))
		for _, name := range names {
			ws, err := s.Spectrum(name, bounds)
			results = append(results, spectrumRow{Signal: name, Window: ws, Err: err})
		}

		if output == "json" {
			return writeSpectraJSON(cmd.OutOrStdout(), results)
		}
		return writeSpectra(cmd.OutOrStdout(), results, viper.GetInt("peaks"))
	},
}
