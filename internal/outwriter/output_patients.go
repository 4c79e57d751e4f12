package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// WritePatientOverview lists the patients of a dataset, dispatching based on the output format configured.
func WritePatientOverview(patients []schema.PatientOverview, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, patients)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePatientsCSV(w, patients)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return unsupportedOutput(cfg.Output, "patients")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePatientsTable(w, patients, cfg)
		}, "Wrote table")
	}
}

// writePatientsTable renders one row per patient in first-seen order.
func writePatientsTable(w io.Writer, patients []schema.PatientOverview, cfg *contract.Config) error {
	shown := limitRows(patients, cfg.ResultLimit)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Patient", "Records", "First Date", "Last Date", "Duplicate Dates"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, p := range shown {
		data = append(data, []string{
			p.PatientID,
			strconv.Itoa(p.Records),
			p.FirstDate.Format(contract.DateFormat),
			p.LastDate.Format(contract.DateFormat),
			strconv.Itoa(p.DuplicateDates),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	eligible := 0
	for _, p := range patients {
		if p.Records >= cfg.MinRecords {
			eligible++
		}
	}
	_, err := fmt.Fprintf(w, "%d patients, %d with at least %d records\n", len(patients), eligible, cfg.MinRecords)
	return err
}

// writePatientsCSV writes the overview rows.
func writePatientsCSV(w io.Writer, patients []schema.PatientOverview) error {
	header := []string{"patient_id", "records", "first_date", "last_date", "duplicate_dates"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range patients {
			rec := []string{
				p.PatientID,
				strconv.Itoa(p.Records),
				p.FirstDate.Format(contract.DateFormat),
				p.LastDate.Format(contract.DateFormat),
				strconv.Itoa(p.DuplicateDates),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
