package runstore

import (
	"errors"
	"fmt"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/internal/parquet"
)

// ExecuteRunsExport exports the full run history to Parquet files.
func ExecuteRunsExport(store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run store status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	runRepos, err := store.GetAllRunRepos()
	if err != nil {
		return fmt.Errorf("failed to retrieve run repos: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetRunRepos := parquet.ConvertRunRepoRecords(runRepos)

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	runReposFile := outputFile + ".run_repos.parquet"
	if err := parquet.WriteRunReposParquet(parquetRunRepos, runReposFile); err != nil {
		return fmt.Errorf("failed to write run repos: %w", err)
	}
	fmt.Printf("Exported %d per-repository rows to: %s\n", len(parquetRunRepos), runReposFile)

	return nil
}
