package cmd

import (
	"fmt"

	"github.com/gitretro/gitretro/internal"
	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/internal/runstore"
	"github.com/gitretro/gitretro/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsSetup loads the minimal configuration needed for run store
// operations, skipping organization and token validation.
func runsSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("runs-backend"))
	if backend == "" || backend == schema.NoneBackend {
		// Inspection commands default to the local SQLite store
		backend = schema.SQLiteBackend
	}
	connStr := viper.GetString("runs-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsCmd focused on run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and export collection run history",
	Long: `Manage the run history recorded when --runs-backend is enabled.

Each report run stores its window, per-repository totals and summary
totals; these commands inspect that history, export it to Parquet, or
apply schema migrations.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show run store statistics
  export  - Export run history to Parquet files
  migrate - Apply run store schema migrations`,
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run store statistics and connection details",
	Long: `Show the configured backend, connection state, total recorded
runs and the most recent run time.

Examples:
  # Check run store status
  gitretro runs status`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := runstore.NewStore(cfg.RunsBackend, cfg.RunsDBConnect)
		if err != nil {
			internal.FatalError("Failed to open run store", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		if err != nil {
			internal.FatalError("Failed to get run store status", err)
		}
		fmt.Println("Run store status:")
		fmt.Printf("  Backend:    %s\n", status.Backend)
		fmt.Printf("  Connected:  %t\n", status.Connected)
		fmt.Printf("  Total runs: %d\n", status.TotalRuns)
		if status.TotalRuns > 0 {
			fmt.Printf("  Last run:   %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
		}
	},
}

// runsExportCmd exports run history to Parquet.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet files",
	Long: `Export the recorded runs and per-repository rows to Parquet
files for analysis in Spark, Pandas, DuckDB or any other
Parquet-compatible tool.

Examples:
  # Write history.runs.parquet and history.run_repos.parquet
  gitretro runs export --output-file history`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := runstore.NewStore(cfg.RunsBackend, cfg.RunsDBConnect)
		if err != nil {
			internal.FatalError("Failed to open run store", err)
		}
		defer func() { _ = store.Close() }()

		if err := runstore.ExecuteRunsExport(store, viper.GetString("output-file")); err != nil {
			internal.FatalError("Failed to export run history", err)
		}
	},
}

// runsMigrateCmd applies run store schema migrations.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply run store schema migrations",
	Long: `Bring the run store schema to the target version.

By default the store migrates to the latest version. Use
--target-version 0 to roll every migration back, or a positive number
to stop at a specific version.

Examples:
  # Migrate to the latest version
  gitretro runs migrate

  # Roll back everything
  gitretro runs migrate --target-version 0`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := runstore.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			internal.FatalError("Failed to run migrations", err)
		}
	},
}
