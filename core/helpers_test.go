package core

import (
	"context"
	"time"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/schema"
)

// steadyRecord is an unremarkable day for a patient.
func steadyRecord(id string, day int) schema.Record {
	return schema.Record{
		PatientID:       id,
		Date:            time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		SleepHours:      7,
		ActivityLevel:   5,
		MoodScore:       3,
		TherapyAttended: 1,
		HeartRate:       70,
		StressLevel:     3,
	}
}

// makeSeries builds n steady records and lets mutate adjust each one.
func makeSeries(id string, n int, mutate func(i int, r *schema.Record)) schema.Series {
	series := make(schema.Series, n)
	for i := range series {
		series[i] = steadyRecord(id, i)
		if mutate != nil {
			mutate(i, &series[i])
		}
	}
	return series
}

// highRiskSeries ends with three days of tachycardia, high stress and no therapy.
func highRiskSeries(id string) schema.Series {
	return makeSeries(id, 10, func(i int, r *schema.Record) {
		if i >= 7 {
			r.HeartRate = 130
			r.StressLevel = 9
			r.TherapyAttended = 0
		}
	})
}

// testConfig returns the default configuration with quiet output.
func testConfig() *contract.Config {
	cfg := contract.DefaultConfig()
	cfg.Workers = 4
	return cfg
}

func quietContext() context.Context {
	return withSuppressHeader(context.Background())
}

// flatten concatenates series into one record list in the given order.
func flatten(series ...schema.Series) []schema.Record {
	var out []schema.Record
	for _, s := range series {
		out = append(out, s...)
	}
	return out
}
