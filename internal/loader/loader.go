// Package loader reads patient measurement tables from CSV or XLSX files and
// prepares them for the risk engine.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

var (
	// ErrMissingDateColumn is returned when the table has no date column.
	ErrMissingDateColumn = errors.New("dataset must contain a 'date' column")

	// ErrMissingColumn is returned when a required non-date column is absent.
	ErrMissingColumn = errors.New("dataset is missing a required column")

	// ErrNoRows is returned when the table has a header but no data.
	ErrNoRows = errors.New("dataset has no data rows")
)

// dateLayouts are the accepted date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
}

// missingTokens are cell values treated as empty.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
}

// Table is a dataset as read from disk, before sorting and mean fill.
type Table struct {
	Records []schema.Record
	// Missing marks, per record, which features were empty in the source.
	Missing []map[schema.Feature]bool
}

// Load reads a CSV or XLSX file into a Table. Headers are trimmed and lowercased.
func Load(path string) (*Table, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	table, err := Parse(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	contract.Logger().Debug("loaded dataset",
		zap.String("path", path),
		zap.Int("rows", len(table.Records)))
	return table, nil
}

// Read loads and processes a file in one step.
func Read(path string) ([]schema.Record, error) {
	table, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Process(table)
}

// readRows dispatches on the file extension.
func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readExcelRows(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return readCSVRows(f)
	}
}

// readCSVRows reads every row of a CSV stream.
func readCSVRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// readExcelRows reads the first sheet of a workbook.
func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// Parse converts raw string rows, header first, into a Table.
func Parse(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrMissingDateColumn
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	dateCol, ok := index[schema.DateColumn]
	if !ok {
		return nil, ErrMissingDateColumn
	}
	idCol, ok := index[schema.PatientIDColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, schema.PatientIDColumn)
	}
	featureCols := make(map[schema.Feature]int, len(schema.ModelFeatures))
	for _, f := range schema.ModelFeatures {
		col, ok := index[string(f)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
		featureCols[f] = col
	}

	table := &Table{}
	for i, row := range rows[1:] {
		line := i + 2
		if isBlankRow(row) {
			continue
		}

		id := strings.TrimSpace(cell(row, idCol))
		if id == "" {
			return nil, fmt.Errorf("row %d: empty %s", line, schema.PatientIDColumn)
		}
		date, err := ParseDate(cell(row, dateCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		rec := schema.Record{PatientID: id, Date: date}
		var missing map[schema.Feature]bool
		for _, f := range schema.ModelFeatures {
			v, ok, err := parseNumber(cell(row, featureCols[f]))
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", line, f, err)
			}
			if !ok {
				if missing == nil {
					missing = make(map[schema.Feature]bool)
				}
				missing[f] = true
				v = math.NaN()
			}
			rec.SetValue(f, v)
		}
		table.Records = append(table.Records, rec)
		table.Missing = append(table.Missing, missing)
	}

	if len(table.Records) == 0 {
		return nil, ErrNoRows
	}
	return table, nil
}

// ParseDate parses an ISO-8601 style calendar date or timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// parseNumber returns the value of a numeric cell and whether it was present.
func parseNumber(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if _, ok := missingTokens[strings.ToLower(s)]; ok {
		return 0, false, nil
	}
	switch strings.ToLower(s) {
	case "true", "yes":
		return 1, true, nil
	case "false", "no":
		return 0, true, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v, true, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
