package loader

import (
	"fmt"
	"slices"
	"sort"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// Patient is the ordered series of one patient.
type Patient struct {
	ID     string
	Series schema.Series
}

// Process sorts records ascending by date, keeping the file order of equal
// dates, and fills every missing feature with the mean of that column over
// the whole table. The Table is not modified.
func Process(table *Table) ([]schema.Record, error) {
	if table == nil || len(table.Records) == 0 {
		return nil, ErrNoRows
	}

	means, err := ColumnMeans(table)
	if err != nil {
		return nil, err
	}

	records := slices.Clone(table.Records)
	filled := 0
	for i := range records {
		for f := range table.Missing[i] {
			records[i].SetValue(f, means[f])
			filled++
		}
	}
	if filled > 0 {
		contract.Logger().Info("filled missing values with column means", zap.Int("cells", filled))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

// ColumnMeans returns the mean of each feature over the non-missing cells.
// A column with no values at all cannot be filled and is an error.
func ColumnMeans(table *Table) (map[schema.Feature]float64, error) {
	means := make(map[schema.Feature]float64, len(schema.ModelFeatures))
	for _, f := range schema.ModelFeatures {
		values := make(stats.Float64Data, 0, len(table.Records))
		for i, r := range table.Records {
			if table.Missing[i][f] {
				continue
			}
			values = append(values, r.Value(f))
		}
		m, err := stats.Mean(values)
		if err != nil {
			return nil, fmt.Errorf("column %s has no values: %w", f, err)
		}
		means[f] = m
	}
	return means, nil
}

// GroupByPatient splits date-sorted records into one series per patient, in
// order of each patient's first appearance.
func GroupByPatient(records []schema.Record) []Patient {
	index := make(map[string]int)
	var patients []Patient
	for _, r := range records {
		i, ok := index[r.PatientID]
		if !ok {
			i = len(patients)
			index[r.PatientID] = i
			patients = append(patients, Patient{ID: r.PatientID})
		}
		patients[i].Series = append(patients[i].Series, r)
	}

	for _, p := range patients {
		if dupes := p.Series.DuplicateDates(); dupes > 0 {
			contract.Logger().Warn("patient has duplicate dates",
				zap.String("patient_id", p.ID),
				zap.Int("duplicates", dupes))
		}
	}
	return patients
}

// FindPatient returns the series of one patient, or false when absent.
func FindPatient(records []schema.Record, patientID string) (schema.Series, bool) {
	var series schema.Series
	for _, r := range records {
		if r.PatientID == patientID {
			series = append(series, r)
		}
	}
	return series, len(series) > 0
}

// Overview summarizes the available data of every patient in first-seen order.
func Overview(records []schema.Record) []schema.PatientOverview {
	patients := GroupByPatient(records)
	out := make([]schema.PatientOverview, 0, len(patients))
	for _, p := range patients {
		out = append(out, schema.PatientOverview{
			PatientID:      p.ID,
			Records:        len(p.Series),
			FirstDate:      p.Series.FirstDate(),
			LastDate:       p.Series.LastDate(),
			DuplicateDates: p.Series.DuplicateDates(),
		})
	}
	return out
}
