package cmd

import (
	"github.com/spf13/cobra"
)

// exportCmd saves preprocessed signals to Parquet.
var exportCmd = &cobra.Command{
	Use:   "export <file> <out.parquet> [signal...]",
	Short: "Save preprocessed signals to a Parquet file.",
	Long: `Load a recording, preprocess the selected signals (all signals when none
are named) and write them to a Parquet file that every other command can read
back with names, rates, values and timestamps intact.

Examples:
  sonido-scope export run1.xdf clean.parquet eeg_0 eeg_1 --cleanup --normalize range`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args[0])
		if err != nil {
			return err
		}
		names, err := prepare(s, args[2:])
		if err != nil {
			return err
		}
		if err := s.Save(args[1]); err != nil {
			return err
		}
		cmd.Printf("wrote %d signals to %s\n", len(names), args[1])
		return nil
	},
}
