// Package main benchmarks the careai CLI on a directory of patient datasets.
// Every dataset is triaged several times without a cache, then several times
// with the SQLite score cache, treating the first cached run as cold and
// averaging the rest as warm. Results are written to a CSV file.
//
// Prerequisites:
// - careai binary installed and available in PATH
// - One or more patient CSV or XLSX exports in the dataset directory
//
// Usage: go run benchmark/main.go [dataset-dir]
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one dataset (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	DatasetDir  string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [dataset-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DatasetDir:  os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
	}

	datasets, err := findDatasets(config.DatasetDir)
	if err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("careai", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}

	results := make([]BenchmarkResult, 0, len(datasets))
	for _, path := range datasets {
		results = append(results, runBenchmarkSuite(config, path))
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  %-24s: No-cache: %s, Cold: %s, Warm: %s\n", r.Dataset, r.NoCacheTime, r.ColdTime, r.WarmTime)
	}
}

// findDatasets checks that careai is installed and lists the dataset files.
func findDatasets(dir string) ([]string, error) {
	if _, err := exec.LookPath("careai"); err != nil {
		return nil, fmt.Errorf("careai binary not found in PATH")
	}

	var datasets []string
	for _, pattern := range []string{"*.csv", "*.xlsx"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, matches...)
	}
	if len(datasets) == 0 {
		return nil, fmt.Errorf("no .csv or .xlsx datasets found in %s", dir)
	}
	slices.Sort(datasets)
	return datasets, nil
}

// runBenchmarkSuite runs both no-cache and cache phases for one dataset.
func runBenchmarkSuite(config BenchmarkConfig, path string) BenchmarkResult {
	name := filepath.Base(path)
	fmt.Printf("Benchmarking %s\n", name)

	_, noCache := runTriage(config, path, "none", config.NoCacheRuns)
	cold, warm := runTriage(config, path, "sqlite", config.CacheRuns)

	coldStr := "TIMEOUT"
	if cold > 0 {
		coldStr = fmt.Sprintf("%.3fs", cold)
	}
	result := BenchmarkResult{
		Dataset:     name,
		NoCacheTime: average(noCache),
		ColdTime:    coldStr,
		WarmTime:    average(warm),
	}
	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", result.NoCacheTime, result.ColdTime, result.WarmTime)
	return result
}

// runTriage runs careai triage numRuns times and returns the first successful time and the rest.
func runTriage(config BenchmarkConfig, path, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"triage",
		"--data", path,
		"--cache-backend", cacheBackend,
		"--workers", fmt.Sprint(config.Workers),
		"--color", "no",
	}

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "careai", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()
		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return coldTime, warmTimes
}

// isSuccess checks that the triage report reached its summary line.
func isSuccess(output []byte) bool {
	out := string(output)
	return strings.Contains(out, "Total High-Risk Patients:") &&
		strings.Contains(out, "workers")
}

func average(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("careai_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"dataset", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write([]string{r.Dataset, r.NoCacheTime, r.ColdTime, r.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}
