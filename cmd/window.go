package cmd

import (
	"github.com/spf13/cobra"
)

// windowCmd shows how the analysis window maps onto each signal.
var windowCmd = &cobra.Command{
	Use:   "window <file> [signal...]",
	Short: "Resolve the analysis window on each signal.",
	Long: `Resolve --start and --end against every selected signal (all signals when
none are named) and show the index range and times each one gets.

In samples mode the bounds are sample indices, truncated and clamped to the
signal. In seconds mode they are matched against each signal's own timestamps,
so streams recorded on different clocks select different ranges. A signal the
window does not fit is reported without affecting the others.

Examples:
  sonido-scope window session.csv --start 100 --end 600
  sonido-scope window run1.xdf eeg_0 acc_0 --unit seconds --start 12.5 --end 14`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args[0])
		if err != nil {
			return err
		}
		if _, err := prepare(s, args[1:]); err != nil {
			return err
		}
		return writeWindows(cmd.OutOrStdout(), s.Interval(cfg.Bounds()))
	},
}
