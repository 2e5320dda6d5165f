package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicelens/voicelens/pkg/baseline"
)

var baselineUser string

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect or reset a user's voice baseline",
}

var baselineShowCmd = &cobra.Command{
	Use:   "show --user <id>",
	Short: "Print a user's stored baseline record",
	RunE: func(cmd *cobra.Command, args []string) error {
		if baselineUser == "" {
			return fmt.Errorf("--user is required")
		}
		engine, closeStore, err := newEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		rec, err := engine.Baseline(cmd.Context(), baselineUser)
		if errors.Is(err, baseline.ErrNotFound) {
			return fmt.Errorf("no baseline stored for %s", baselineUser)
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

var baselineResetCmd = &cobra.Command{
	Use:   "reset --user <id>",
	Short: "Discard a user's baseline so calibration starts over",
	RunE: func(cmd *cobra.Command, args []string) error {
		if baselineUser == "" {
			return fmt.Errorf("--user is required")
		}
		engine, closeStore, err := newEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := engine.ResetBaseline(cmd.Context(), baselineUser); err != nil {
			return err
		}
		fmt.Printf("Baseline for %s removed.\n", baselineUser)
		return nil
	},
}

func init() {
	baselineCmd.PersistentFlags().StringVarP(&baselineUser, "user", "u", "", "user ID (required)")
	baselineCmd.AddCommand(baselineShowCmd)
	baselineCmd.AddCommand(baselineResetCmd)
	rootCmd.AddCommand(baselineCmd)
}
