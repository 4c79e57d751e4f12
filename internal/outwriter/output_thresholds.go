package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// thresholdRow is one named threshold in the listing.
type thresholdRow struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// thresholdRows flattens the thresholds in the order the rules apply them.
func thresholdRows(th contract.Thresholds) []thresholdRow {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	i := strconv.Itoa
	return []thresholdRow{
		{"recent_window", i(th.RecentWindow), "trailing records compared against the baseline"},
		{"sleep_drop_ratio", f(th.SleepDropRatio), "recent sleep below this share of baseline is penalized"},
		{"sleep_drop_penalty", f(th.SleepDropPenalty), "score penalty for a sleep drop"},
		{"hr_rise_ratio", f(th.HRRiseRatio), "recent heart rate above this multiple of baseline is penalized"},
		{"hr_rise_penalty", f(th.HRRisePenalty), "score penalty for a heart rate rise"},
		{"stress_limit", f(th.StressLimit), "recent stress above this is penalized"},
		{"stress_penalty", f(th.StressPenalty), "score penalty for high stress"},
		{"activity_quantile", f(th.ActivityQuantile), "activity quantile used as the low activity bar"},
		{"activity_penalty", f(th.ActivityPenalty), "score penalty for low activity"},
		{"mood_drop_ratio", f(th.MoodDropRatio), "recent mood below this share of baseline is penalized"},
		{"mood_drop_penalty", f(th.MoodDropPenalty), "score penalty for a mood drop"},
		{"sleep_floor", f(th.SleepFloor), "recent sleep below this is flagged"},
		{"mood_floor", f(th.MoodFloor), "recent mood below this is flagged"},
		{"hr_ceiling", f(th.HRCeiling), "recent heart rate above this is flagged"},
		{"stress_ceiling", f(th.StressCeiling), "recent stress above this is flagged"},
		{"therapy_min", f(th.TherapyMin), "fewer recent therapy sessions than this is flagged"},
		{"progress_min_records", i(th.ProgressMinRecords), "records needed before progress is judged"},
		{"progress_window", i(th.ProgressWindow), "records in each progress comparison window"},
		{"score_cutoff", f(th.ScoreCutoff), "scores below this are High or Medium"},
		{"hard_signal_min", i(th.HardSignalMin), "hard escalation flags needed for High"},
	}
}

// WriteThresholdValues prints the active thresholds, dispatching based on the output format configured.
func WriteThresholdValues(th contract.Thresholds, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, th)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"name", "value", "description"}, func(cw *csv.Writer) error {
				for _, r := range thresholdRows(th) {
					if err := cw.Write([]string{r.Name, r.Value, r.Description}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return unsupportedOutput(cfg.Output, "thresholds")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeThresholdsTable(w, th)
		}, "Wrote table")
	}
}

// writeThresholdsTable renders the thresholds as a name/value table.
func writeThresholdsTable(w io.Writer, th contract.Thresholds) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Value", "Description"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, r := range thresholdRows(th) {
		data = append(data, []string{r.Name, r.Value, r.Description})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
