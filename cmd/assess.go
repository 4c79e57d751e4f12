package cmd

import (
	"github.com/spf13/cobra"

	"github.com/careai/careai/core"
	"github.com/careai/careai/internal/contract"
)

// assessCmd shows the dashboard view of one patient.
var assessCmd = &cobra.Command{
	Use:   "assess <patient-id>",
	Short: "Show the risk score, progress, status and insight of one patient.",
	Long: `Assess a single patient and print the numbers a nurse needs at a glance.

Shows:
- Risk score
- Progress (Yes/No)
- Status tier
- Insight

With --detail, also prints the baseline and trailing-window averages
that triggered each rule and the most recent records.

Examples:
  careai assess P001 --data patients.csv
  careai assess P001 --data patients.csv --detail
  careai assess P001 --data patients.csv --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAssess(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot assess patient", err)
		}
	},
}
