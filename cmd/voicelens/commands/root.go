// Package commands implements the voicelens CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicelens/voicelens/pkg/baseline"
	"github.com/voicelens/voicelens/pkg/screen"
)

var (
	// Global flags.
	verbose    bool
	configPath string
	paramsPath string
	storeDir   string
)

var rootCmd = &cobra.Command{
	Use:   "voicelens",
	Short: "Voice-based mental-state screening",
	Long: `voicelens - a non-diagnostic screening aid that analyzes short speech
recordings for vocal markers associated with anxiety, depression and
stress, and maps them onto standard rating scales (PHQ-9, GAD-7, PSS,
WEMWBS).

Results are voice-derived estimates, not clinical assessments.

Examples:
  # Analyze a recording
  voicelens analyze recording.wav

  # Build a personal baseline (repeat with ~9 recordings)
  voicelens calibrate --user alice morning.wav

  # Analyze against the personal baseline
  voicelens analyze --user alice checkin.wav`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&paramsPath, "params", "", "path to ensemble parameter file")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "directory for the persistent baseline store")
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newEngine builds the screening engine from the global flags and the
// optional config file. The returned close function releases the
// baseline store.
func newEngine() (*screen.Engine, func(), error) {
	cfg, fileParams, fileStoreDir, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if paramsPath == "" {
		paramsPath = fileParams
	}
	if storeDir == "" {
		storeDir = fileStoreDir
	}

	opts := []screen.Option{screen.WithConfig(cfg)}
	closeStore := func() {}
	if storeDir != "" {
		store, err := baseline.NewBadgerStore(baseline.BadgerOptions{Dir: storeDir})
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, screen.WithStore(store))
		closeStore = func() { store.Close() }
	}

	if paramsPath != "" {
		return screen.NewWithParams(paramsPath, opts...), closeStore, nil
	}
	return screen.New(opts...), closeStore, nil
}
