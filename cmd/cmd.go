// Package cmd defines the command-line interface for sonido-scope.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-scope/config"
	"github.com/RyanBlaney/sonido-scope/logging"
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(spectrumCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)

	defaults := config.Default()
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().Float64("target-rate", defaults.TargetSamplingRate, "Rate in Hz that tabular files are resampled to")
	rootCmd.PersistentFlags().Float64("start", defaults.WindowStart, "Analysis window start")
	rootCmd.PersistentFlags().Float64("end", defaults.WindowEnd, "Analysis window end")
	rootCmd.PersistentFlags().String("unit", defaults.WindowUnit, "Window unit: samples or seconds")
	rootCmd.PersistentFlags().String("taper", defaults.SpectrumWindow, "Spectrum taper: rectangular, hann, hamming, blackman, blackman-harris or bartlett")
	rootCmd.PersistentFlags().Bool("clock-sync", defaults.ClockSync, "Apply XDF clock offsets to stream timestamps")
	rootCmd.PersistentFlags().String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("color", true, "Highlight failures in color")
	rootCmd.PersistentFlags().StringArray("filter", nil, "Filter to apply before analysis as kind:first:second (repeatable), e.g. lowpass:40:4, bandpass:1;40:4, notch:60:30")
	rootCmd.PersistentFlags().Bool("cleanup", false, "Apply the harmonic cleanup chain before analysis")
	rootCmd.PersistentFlags().String("normalize", "", "Rescale signals before analysis: range, zscore, peak or rms")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		logging.Fatal(err, "Error binding root flags")
	}

	spectrumCmd.Flags().Int("peaks", 3, "Number of spectral peaks to list per signal")
	spectrumCmd.Flags().String("output", "text", "Output format: text or json")
	if err := viper.BindPFlags(spectrumCmd.Flags()); err != nil {
		logging.Fatal(err, "Error binding spectrum flags")
	}
}
