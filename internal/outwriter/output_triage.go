package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/internal/parquet"
	"github.com/careai/careai/schema"
)

// triageTitle heads the text report of a batch triage.
const triageTitle = "=== HIGH-RISK PATIENTS (IMMEDIATE ATTENTION REQUIRED) ==="

// WriteTriageResults outputs the triage report, dispatching based on the output format configured.
func WriteTriageResults(output *schema.TriageOutput, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, output)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTriageCSV(w, output.Assessments, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertAssessments(output.Assessments, time.Now())
		if err := parquet.WritePatientAssessmentsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTriageTable(w, output, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// writeTriageTable renders the high-risk patients, most urgent first, and the total count.
func writeTriageTable(w io.Writer, output *schema.TriageOutput, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "\n%s\n\n", triageTitle); err != nil {
		return err
	}

	shown := limitRows(output.HighRisk, cfg.ResultLimit)
	if len(shown) == 0 {
		if _, err := fmt.Fprintln(w, "No high-risk patients."); err != nil {
			return err
		}
	} else {
		table := tablewriter.NewWriter(w)

		headers := []string{"Rank", "Patient", "Risk Score", "Progress", "Tier", "Insight"}
		if cfg.Detail {
			headers = append(headers, "Records", "Last Date", "Fitted")
		}
		table.Header(headers)
		table.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})

		insightWidth := GetMaxTableInsightWidth(cfg)
		var data [][]string
		for i, a := range shown {
			row := []string{
				strconv.Itoa(i + 1),
				a.PatientID,
				fmtFloat(a.RiskScore),
				contract.YesNo(a.Progress),
				contract.GetColorLabel(a.Insight.Tier),
				contract.TruncateText(a.Insight.Text, insightWidth),
			}
			if cfg.Detail {
				row = append(row,
					fmt.Sprintf(intFmt, a.Records),
					a.LastDate.Format(contract.DateFormat),
					contract.YesNo(a.AnomalyFitted),
				)
			}
			data = append(data, row)
		}

		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
		if len(shown) < len(output.HighRisk) {
			if _, err := fmt.Fprintf(w, "Showing top %d of %d high-risk patients\n", len(shown), len(output.HighRisk)); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "\nTotal High-Risk Patients: %d\n", len(output.HighRisk)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Assessed %d patients (%d skipped) in %v with %d workers. Cache backend: %s\n",
		len(output.Assessments), len(output.Skipped), duration.Round(time.Millisecond), cfg.Workers, cfg.CacheBackend)
	return err
}

// assessmentCSVHeader lists the columns shared by the triage and assess CSV outputs.
var assessmentCSVHeader = []string{
	"patient_id",
	"risk_score",
	"progress",
	"tier",
	"insight",
	"records",
	"last_date",
	"anomaly_fitted",
	"reasons",
}

// assessmentCSVRecord flattens one assessment into a CSV row.
func assessmentCSVRecord(a schema.RiskAssessment, fmtFloat func(float64) string, intFmt string) []string {
	return []string{
		a.PatientID,
		fmtFloat(a.RiskScore),
		strconv.FormatBool(a.Progress),
		string(a.Insight.Tier),
		a.Insight.Text,
		fmt.Sprintf(intFmt, a.Records),
		a.LastDate.Format(contract.DateFormat),
		strconv.FormatBool(a.AnomalyFitted),
		strings.Join(a.Summary.Reasons(), "|"),
	}
}

// writeTriageCSV writes every assessment in input order.
func writeTriageCSV(w io.Writer, assessments []schema.RiskAssessment, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, assessmentCSVHeader, func(cw *csv.Writer) error {
		for _, a := range assessments {
			if err := cw.Write(assessmentCSVRecord(a, fmtFloat, intFmt)); err != nil {
				return err
			}
		}
		return nil
	})
}
