package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-scope/config"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/session"
)

// Linker flags are set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cfg holds the validated, final configuration.
var cfg = config.Default()

// logger is shared by every command once sharedSetup has run.
var logger logging.Logger = logging.GetGlobalLogger()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "sonido-scope",
	Short: "Inspect, filter and analyze multi-channel physiological recordings.",
	Long: `sonido-scope loads CSV, XDF, WAV or Parquet recordings, applies zero-phase
filters and computes magnitude spectra over an analysis window.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".sonido-scope")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("SCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	defaults := config.Default()
	viper.SetDefault("target-rate", defaults.TargetSamplingRate)
	viper.SetDefault("start", defaults.WindowStart)
	viper.SetDefault("end", defaults.WindowEnd)
	viper.SetDefault("unit", defaults.WindowUnit)
	viper.SetDefault("taper", defaults.SpectrumWindow)
	viper.SetDefault("clock-sync", defaults.ClockSync)
	viper.SetDefault("log-level", defaults.LogLevel)
	viper.SetDefault("color", true)
}

// sharedSetup merges defaults, file, env and flags into cfg and validates it.
func sharedSetup(_ *cobra.Command, _ []string) error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	resolved := config.Default()
	if err := viper.Unmarshal(&resolved); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := resolved.Validate(); err != nil {
		return err
	}
	cfg = resolved

	if !viper.GetBool("color") {
		color.NoColor = true
	}

	// stdout carries the tables
	logger = logging.NewWriterLogger(os.Stderr, cfg.Level())
	logging.SetGlobalLogger(logger)
	return nil
}

// openSession loads path into a fresh session.
func openSession(path string) (*session.Session, error) {
	s := session.New(cfg, logger)
	if err := s.Load(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
