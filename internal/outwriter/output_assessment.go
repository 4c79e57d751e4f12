package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/internal/parquet"
	"github.com/careai/careai/schema"
)

// WriteAssessmentResult outputs one patient's dashboard, dispatching based on the output format configured.
func WriteAssessmentResult(detail schema.PatientDetail, series schema.Series, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, detail)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, assessmentCSVHeader, func(cw *csv.Writer) error {
				return cw.Write(assessmentCSVRecord(detail.RiskAssessment, fmtFloat, intFmt))
			})
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertAssessments([]schema.RiskAssessment{detail.RiskAssessment}, time.Now())
		if err := parquet.WritePatientAssessmentsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAssessmentText(w, detail, series, cfg, fmtFloat)
		}, "Wrote report")
	}
	return nil
}

// writeAssessmentText prints the dashboard lines and, with detail, the numbers behind them.
func writeAssessmentText(w io.Writer, detail schema.PatientDetail, series schema.Series, cfg *contract.Config, fmtFloat func(float64) string) error {
	a := detail.RiskAssessment
	lines := []string{
		fmt.Sprintf("Patient: %s", a.PatientID),
		fmt.Sprintf("Risk Score: %s", fmtFloat(a.RiskScore)),
		fmt.Sprintf("Progress: %s", contract.YesNo(a.Progress)),
		fmt.Sprintf("Status: %s", contract.GetColorLabel(a.Insight.Tier)),
		fmt.Sprintf("Insight: %s", a.Insight.Text),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if !cfg.Detail {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\nRecords: %d (last %s), anomaly model fitted: %s\n\n",
		a.Records, a.LastDate.Format(contract.DateFormat), contract.YesNo(a.AnomalyFitted)); err != nil {
		return err
	}
	if err := writeWindowStatsTable(w, detail.Stats, cfg.Thresholds, fmtFloat); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return writeRecentRecordsTable(w, series.Tail(cfg.Thresholds.RecentWindow), fmtFloat)
}

// writeWindowStatsTable compares the trailing window with the baseline.
func writeWindowStatsTable(w io.Writer, st schema.WindowStats, th contract.Thresholds, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Baseline", fmt.Sprintf("Last %d", th.RecentWindow)})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	data := [][]string{
		{"Sleep hours", fmtFloat(st.BaselineSleep), fmtFloat(st.RecentSleep)},
		{"Mood score", fmtFloat(st.BaselineMood), fmtFloat(st.RecentMood)},
		{"Heart rate", fmtFloat(st.BaselineHR), fmtFloat(st.RecentHR)},
		{"Stress level", "-", fmtFloat(st.RecentStress)},
		{"Activity level", fmtFloat(st.ActivityQ25) + " (q25)", fmtFloat(st.RecentActivity)},
		{"Therapy sessions", "-", fmtFloat(st.RecentTherapy)},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeRecentRecordsTable lists the raw records of the trailing window.
func writeRecentRecordsTable(w io.Writer, recent schema.Series, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	headers := []string{"Date"}
	for _, f := range schema.ModelFeatures {
		headers = append(headers, string(f))
	}
	table.Header(headers)
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range recent {
		row := []string{r.Date.Format(contract.DateFormat)}
		for _, v := range r.Vector() {
			row = append(row, fmtFloat(v))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
