package cmd

import (
	"github.com/spf13/cobra"

	"github.com/careai/careai/core"
	"github.com/careai/careai/internal/contract"
)

// patientsCmd lists the patients in the dataset.
var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "List the patients in the dataset with their record counts.",
	Long: `List every patient id in first-seen order with the number of records,
the date range covered and how many dates appear more than once.

Examples:
  careai patients --data patients.csv
  careai patients --data patients.xlsx --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePatients(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot list patients", err)
		}
	},
}
