package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicelens/voicelens/pkg/screen"
)

var calibrateUser string

var calibrateCmd = &cobra.Command{
	Use:   "calibrate --user <id> <file.wav>",
	Short: "Add a recording to a user's voice baseline",
	Long: `Calibrate adds one recording to the user's personal baseline. The
baseline becomes usable once enough samples have been collected;
validation is more lenient than for a full analysis.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if calibrateUser == "" {
			return fmt.Errorf("--user is required")
		}
		engine, closeStore, err := newEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		status, err := engine.Calibrate(cmd.Context(), calibrateUser, screen.FromFile(args[0]))
		if err != nil {
			return err
		}

		fmt.Printf("Collected %d of %d calibration samples for %s\n",
			status.SamplesCollected, status.SamplesRequired, calibrateUser)
		if status.IsCalibrated {
			fmt.Println("Baseline is calibrated; personalized analysis is available.")
		} else {
			fmt.Printf("Need %d more sample(s).\n", status.SamplesRequired-status.SamplesCollected)
		}
		return nil
	},
}

func init() {
	calibrateCmd.Flags().StringVarP(&calibrateUser, "user", "u", "", "user ID (required)")
	rootCmd.AddCommand(calibrateCmd)
}
