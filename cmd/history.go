package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/internal/iocache"
	"github.com/careai/careai/schema"
)

// storeBackendFromConfig reads and validates the assessment history backend settings.
func storeBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	// Handle empty backend as NoneBackend
	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidStoreBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	backend, connStr, err := storeBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no score caching for history commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize assessment history: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeBackendFromConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetStoreDBFilePath()
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return nil
}

// historyCmd focused on assessment history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by assessment commands. No dataset is needed.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage stored triage runs and assessments",
	Long: `Manage the history of triage runs kept for auditing and trend reporting.

When --store-backend is set, careai records every triage run, storing:
- Run metadata (timestamps, configuration, duration, counts)
- Every patient assessment of the run with its deviation flags

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status  - Show history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Record runs in a local SQLite file
  careai triage --data patients.csv --store-backend sqlite

  # Export for analysis in pandas/DuckDB
  careai history export --store-backend sqlite --output-file history`,
}

// historyClearCmd clears the assessment history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored triage runs and assessments",
	Long: `Delete all stored triage runs and patient assessments.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  careai history export --store-backend sqlite --output-file backup
  careai history clear --store-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores()
		if err := iocache.ClearHistory(cfg.StoreBackend, sqlitePath(cfg.StoreDBConnect, contract.GetStoreDBFilePath()), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear assessment history", err)
		}
		fmt.Println("Assessment history cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show detailed information about stored triage runs.

Displays:
- Backend type and connection status
- Total number of triage runs and assessments stored
- Last and oldest run timestamps
- Database table sizes

Examples:
  careai history status --store-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetAssessmentStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", fmt.Errorf("store backend %s is not initialized", cfg.StoreBackend))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

// historyExportCmd exports the history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored runs and assessments to Parquet",
	Long: `Export all stored history to Parquet format for use with analytics tools.

Exports two datasets next to --output-file:
- <output-file>.triage_runs.parquet
- <output-file>.patient_assessments.parquet

Requires: --output-file parameter

Examples:
  careai history export --store-backend sqlite --output-file history
  duckdb -c "SELECT tier, count(*) FROM read_parquet('history.patient_assessments.parquet') GROUP BY tier"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export assessment history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the assessment store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the assessment history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  careai history migrate --store-backend postgresql --store-db-connect "..."

  # Migrate to specific version
  careai history migrate --store-backend sqlite --target-version 1

  # Rollback everything
  careai history migrate --store-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
