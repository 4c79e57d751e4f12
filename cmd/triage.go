package cmd

import (
	"github.com/spf13/cobra"

	"github.com/careai/careai/core"
	"github.com/careai/careai/internal/contract"
)

// triageCmd assesses every patient and lists the high-risk ones.
var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "List the high-risk patients, most urgent first.",
	Long: `Assess every patient in the dataset and report the ones that need immediate attention.

Each patient with at least --min-records records gets:
- A risk score (lower is more concerning)
- A progress flag based on recent mood
- A tier (High, Medium, Stable) and a plain-language insight

The report lists High tier patients from the lowest score up.

Examples:
  # Triage a CSV export
  careai triage --data patients.csv

  # Show the ten most urgent patients with the records behind them
  careai triage --data patients.csv --limit 10 --detail

  # Export every assessment for a spreadsheet
  careai triage --data patients.csv --output csv --output-file triage.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTriage(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run triage", err)
		}
	},
}
