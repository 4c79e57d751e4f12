package cmd

import (
	"github.com/spf13/cobra"

	"github.com/careai/careai/core"
	"github.com/careai/careai/internal/contract"
)

// thresholdsCmd prints the active clinical thresholds.
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Print the clinical thresholds in effect.",
	Long: `Print the deviation ratios, penalties, escalation limits and cutoffs
used to score and classify patients, after applying the thresholds
section of the config file.

Example .careai.yaml:
  thresholds:
    recent_window: 3
    score_cutoff: -0.2
    hr_ceiling: 100`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteThresholds(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot print thresholds", err)
		}
	},
}
