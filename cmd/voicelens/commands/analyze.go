package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/voicelens/voicelens/pkg/screen"
)

var (
	analyzeUser string
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.wav>",
	Short: "Analyze a speech recording",
	Long: `Analyze runs the full screening pipeline on one recording: feature
extraction, classification, clinical scale mapping and, when --user
names a calibrated user, baseline deviation scoring.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, closeStore, err := newEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx := cmd.Context()
		src := screen.FromFile(args[0])

		var res *screen.Result
		if analyzeUser != "" {
			res, err = engine.AnalyzePersonalized(ctx, analyzeUser, src)
		} else {
			res, err = engine.Analyze(ctx, src)
		}
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printResult(res)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "", "user ID for personalized analysis")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func printResult(res *screen.Result) {
	fmt.Printf("Report %s  (%.1fs audio, %d segments)\n\n", res.ID, res.Duration, res.SegmentCount)

	names := make([]string, 0, len(res.Probabilities))
	for name := range res.Probabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-12s %5.1f%%\n", name, res.Probabilities[name]*100)
	}
	fmt.Printf("\n  confidence    %.2f\n", res.Confidence)
	fmt.Printf("  wellness      %.0f/100\n", res.MentalHealthScore)
	fmt.Printf("  risk level    %s\n\n", res.RiskLevel)

	for _, s := range []struct {
		name  string
		value float64
		max   float64
		sev   string
	}{
		{"PHQ-9", res.ScaleScores.PHQ9.Value, res.ScaleScores.PHQ9.Max, res.ScaleScores.PHQ9.Severity},
		{"GAD-7", res.ScaleScores.GAD7.Value, res.ScaleScores.GAD7.Max, res.ScaleScores.GAD7.Severity},
		{"PSS", res.ScaleScores.PSS.Value, res.ScaleScores.PSS.Max, res.ScaleScores.PSS.Severity},
		{"WEMWBS", res.ScaleScores.WEMWBS.Value, res.ScaleScores.WEMWBS.Max, res.ScaleScores.WEMWBS.Severity},
	} {
		fmt.Printf("  %-8s %3.0f/%-3.0f  %s\n", s.name, s.value, s.max, s.sev)
	}

	if res.BaselineState != "" {
		fmt.Println()
		switch res.BaselineState {
		case screen.BaselineStateCalibrated:
			fmt.Printf("  baseline deviation  %.2f (%s)\n", *res.BaselineDeviation, res.DeviationBand)
			fmt.Printf("  adjusted risk       %s\n", res.AdjustedRiskLevel)
		case screen.BaselineStateUncalibrated:
			fmt.Println("  baseline not yet calibrated; run more calibration samples")
		case screen.BaselineStateNone:
			fmt.Println("  no baseline for this user; run 'voicelens calibrate'")
		}
	}

	fmt.Println("\nEstimates are voice-derived screening aids, not a diagnosis.")
}
