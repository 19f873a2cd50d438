// Package parquet provides data structures and functions for exporting run
// history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single collection run with its cross-repository totals.
// This struct maps to the gitretro_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Organization is the organization the run collected
	Organization string `parquet:"organization,snappy"`

	// WindowStart is the inclusive start of the reporting window
	WindowStart time.Time `parquet:"window_start,snappy"`

	// WindowEnd is the inclusive end of the reporting window
	WindowEnd time.Time `parquet:"window_end,snappy"`

	// StartedAt is when the run began
	StartedAt time.Time `parquet:"started_at,snappy"`

	// FinishedAt is when the run completed (nullable for aborted runs)
	FinishedAt *time.Time `parquet:"finished_at,optional,snappy"`

	// TotalRepos is the number of repositories the run collected
	TotalRepos int32 `parquet:"total_repos,snappy"`

	// TotalCommits is the window-bounded commit total across repositories
	TotalCommits int32 `parquet:"total_commits,snappy"`

	// TotalPRs is the window-bounded pull request total across repositories
	TotalPRs int32 `parquet:"total_prs,snappy"`

	// TotalIssues is the window-bounded issue total across repositories
	TotalIssues int32 `parquet:"total_issues,snappy"`

	// TotalReleases is the window-bounded release total across repositories
	TotalReleases int32 `parquet:"total_releases,snappy"`
}

// RunRepo represents one repository's totals within a run.
// This struct maps to the gitretro_run_repos database table.
type RunRepo struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// Repo is the repository name within the organization
	Repo string `parquet:"repo,snappy"`

	// Commits is the window-bounded commit count
	Commits int32 `parquet:"commits,snappy"`

	// PRs is the window-bounded pull request count
	PRs int32 `parquet:"prs,snappy"`

	// Issues is the window-bounded issue count
	Issues int32 `parquet:"issues,snappy"`

	// Releases is the window-bounded release count
	Releases int32 `parquet:"releases,snappy"`
}

// ConvertRunRecords converts store records to their Parquet representation.
func ConvertRunRecords(records []contract.RunRecord) []Run {
	result := make([]Run, 0, len(records))
	for _, r := range records {
		run := Run{
			RunID:         r.ID,
			Organization:  r.Organization,
			WindowStart:   r.WindowStart,
			WindowEnd:     r.WindowEnd,
			StartedAt:     r.StartedAt,
			TotalRepos:    int32(r.TotalRepos),
			TotalCommits:  int32(r.TotalCommits),
			TotalPRs:      int32(r.TotalPRs),
			TotalIssues:   int32(r.TotalIssues),
			TotalReleases: int32(r.TotalReleases),
		}
		if !r.FinishedAt.IsZero() {
			finished := r.FinishedAt
			run.FinishedAt = &finished
		}
		result = append(result, run)
	}
	return result
}

// ConvertRunRepoRecords converts store records to their Parquet representation.
func ConvertRunRepoRecords(records []contract.RunRepoRecord) []RunRepo {
	result := make([]RunRepo, 0, len(records))
	for _, r := range records {
		result = append(result, RunRepo{
			RunID:    r.RunID,
			Repo:     r.Repo,
			Commits:  int32(r.Commits),
			PRs:      int32(r.PRs),
			Issues:   int32(r.Issues),
			Releases: int32(r.Releases),
		})
	}
	return result
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Schema is inferred from the Run struct tags
	writer := parquet.NewGenericWriter[Run](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteRunReposParquet writes a slice of RunRepo structs to a Parquet file.
func WriteRunReposParquet(data []RunRepo, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Schema is inferred from the RunRepo struct tags
	writer := parquet.NewGenericWriter[RunRepo](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}
