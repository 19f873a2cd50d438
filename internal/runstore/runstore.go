// Package runstore tracks collection runs in a relational database.
package runstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for run tracking.
const (
	runsTable     = "gitretro_runs"
	runReposTable = "gitretro_run_repos"
)

// StoreImpl implements the RunStore interface on top of SQLite, MySQL or
// PostgreSQL. With the none backend every operation is a no-op.
type StoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.RunStore = &StoreImpl{} // Compile-time check

// NewStore creates a new RunStore with the specified backend.
func NewStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetRunsDBFilePath()
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
				return nil, fmt.Errorf("failed to create run store directory: %w", err)
			}
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &StoreImpl{db: nil, backend: backend}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w. Check that the server is running and connection parameters are valid", backend, err)
	}

	// Create the table schemas
	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &StoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
	}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{runReposTable, getCreateRunReposQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for gitretro_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				organization VARCHAR(255) NOT NULL,
				window_start DATETIME(6) NOT NULL,
				window_end DATETIME(6) NOT NULL,
				started_at DATETIME(6) NOT NULL,
				finished_at DATETIME(6),
				total_repos INT NOT NULL DEFAULT 0,
				total_commits INT NOT NULL DEFAULT 0,
				total_prs INT NOT NULL DEFAULT 0,
				total_issues INT NOT NULL DEFAULT 0,
				total_releases INT NOT NULL DEFAULT 0
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				organization TEXT NOT NULL,
				window_start TIMESTAMPTZ NOT NULL,
				window_end TIMESTAMPTZ NOT NULL,
				started_at TIMESTAMPTZ NOT NULL,
				finished_at TIMESTAMPTZ,
				total_repos INT NOT NULL DEFAULT 0,
				total_commits INT NOT NULL DEFAULT 0,
				total_prs INT NOT NULL DEFAULT 0,
				total_issues INT NOT NULL DEFAULT 0,
				total_releases INT NOT NULL DEFAULT 0
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				organization TEXT NOT NULL,
				window_start TEXT NOT NULL,
				window_end TEXT NOT NULL,
				started_at TEXT NOT NULL,
				finished_at TEXT,
				total_repos INTEGER NOT NULL DEFAULT 0,
				total_commits INTEGER NOT NULL DEFAULT 0,
				total_prs INTEGER NOT NULL DEFAULT 0,
				total_issues INTEGER NOT NULL DEFAULT 0,
				total_releases INTEGER NOT NULL DEFAULT 0
			);
		`, quotedTableName)
	}
}

// getCreateRunReposQuery returns the CREATE TABLE query for gitretro_run_repos.
func getCreateRunReposQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runReposTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				repo VARCHAR(255) NOT NULL,
				commits INT NOT NULL,
				prs INT NOT NULL,
				issues INT NOT NULL,
				releases INT NOT NULL,
				PRIMARY KEY (run_id, repo)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				repo TEXT NOT NULL,
				commits INT NOT NULL,
				prs INT NOT NULL,
				issues INT NOT NULL,
				releases INT NOT NULL,
				PRIMARY KEY (run_id, repo)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				repo TEXT NOT NULL,
				commits INTEGER NOT NULL,
				prs INTEGER NOT NULL,
				issues INTEGER NOT NULL,
				releases INTEGER NOT NULL,
				PRIMARY KEY (run_id, repo)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run row and returns its unique ID.
func (rs *StoreImpl) BeginRun(startedAt time.Time, org string, windowStart, windowEnd time.Time) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	var runID int64
	var err error
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (organization, window_start, window_end, started_at) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, org, windowStart, windowEnd, startedAt).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (organization, window_start, window_end, started_at) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, org, formatTime(windowStart, rs.backend), formatTime(windowEnd, rs.backend), formatTime(startedAt, rs.backend))
		if err != nil {
			return 0, err
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return runID, nil
}

// EndRun finalizes the run with its completion time and summary totals.
func (rs *StoreImpl) EndRun(runID int64, finishedAt time.Time, summary schema.AggregateSummary) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	var query string
	var args []any
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`UPDATE %s SET finished_at = $1, total_repos = $2, total_commits = $3, total_prs = $4, total_issues = $5, total_releases = $6 WHERE run_id = $7`, quotedTableName)
		args = []any{finishedAt, summary.TotalRepositories, summary.TotalCommits, summary.TotalPRs, summary.TotalIssues, summary.TotalReleases, runID}
	default: // SQLite and MySQL
		query = fmt.Sprintf(`UPDATE %s SET finished_at = ?, total_repos = ?, total_commits = ?, total_prs = ?, total_issues = ?, total_releases = ? WHERE run_id = ?`, quotedTableName)
		args = []any{formatTime(finishedAt, rs.backend), summary.TotalRepositories, summary.TotalCommits, summary.TotalPRs, summary.TotalIssues, summary.TotalReleases, runID}
	}

	if _, err := rs.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to finalize run %d: %w", runID, err)
	}

	return nil
}

// RecordRepo stores one repository's totals under the run.
func (rs *StoreImpl) RecordRepo(runID int64, rec schema.RepositoryRecord) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runReposTable, rs.backend)

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (run_id, repo, commits, prs, issues, releases) VALUES ($1, $2, $3, $4, $5, $6)`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`INSERT INTO %s (run_id, repo, commits, prs, issues, releases) VALUES (?, ?, ?, ?, ?, ?)`, quotedTableName)
	}

	_, err := rs.db.Exec(query, runID, rec.Name, rec.Commits.Total, rec.PullRequests.Total, rec.Issues.Total, rec.Releases.Total)
	if err != nil {
		return fmt.Errorf("failed to insert run repo: %w", err)
	}

	return nil
}

// GetStatus returns status information about the run store.
func (rs *StoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(runsTable, rs.backend))
	if err := rs.db.QueryRow(countQuery).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns == 0 {
		return status, nil
	}

	lastQuery := fmt.Sprintf("SELECT started_at FROM %s ORDER BY run_id DESC LIMIT 1", quoteTableName(runsTable, rs.backend))
	row := rs.db.QueryRow(lastQuery)

	switch rs.backend {
	case schema.SQLiteBackend:
		var lastStr string
		if err := row.Scan(&lastStr); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		last, err := time.Parse(time.RFC3339Nano, lastStr)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = last
	default: // MySQL and PostgreSQL store as native datetime
		if err := row.Scan(&status.LastRunTime); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
	}

	return status, nil
}

// GetAllRuns retrieves every recorded run, oldest first.
func (rs *StoreImpl) GetAllRuns() ([]contract.RunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	query := fmt.Sprintf(`SELECT run_id, organization, window_start, window_end, started_at, finished_at,
    total_repos, total_commits, total_prs, total_issues, total_releases
    FROM %s ORDER BY run_id`, quotedTableName)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []contract.RunRecord

	for rows.Next() {
		var record contract.RunRecord

		switch rs.backend {
		case schema.SQLiteBackend:
			var windowStartStr, windowEndStr, startedStr string
			var finishedStr *string
			if err := rows.Scan(&record.ID, &record.Organization, &windowStartStr, &windowEndStr, &startedStr, &finishedStr,
				&record.TotalRepos, &record.TotalCommits, &record.TotalPRs, &record.TotalIssues, &record.TotalReleases); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.WindowStart, err = time.Parse(time.RFC3339Nano, windowStartStr); err != nil {
				return nil, fmt.Errorf("failed to parse window_start: %w", err)
			}
			if record.WindowEnd, err = time.Parse(time.RFC3339Nano, windowEndStr); err != nil {
				return nil, fmt.Errorf("failed to parse window_end: %w", err)
			}
			if record.StartedAt, err = time.Parse(time.RFC3339Nano, startedStr); err != nil {
				return nil, fmt.Errorf("failed to parse started_at: %w", err)
			}
			if finishedStr != nil {
				if record.FinishedAt, err = time.Parse(time.RFC3339Nano, *finishedStr); err != nil {
					return nil, fmt.Errorf("failed to parse finished_at: %w", err)
				}
			}
		default: // MySQL and PostgreSQL
			var finished sql.NullTime
			if err := rows.Scan(&record.ID, &record.Organization, &record.WindowStart, &record.WindowEnd, &record.StartedAt, &finished,
				&record.TotalRepos, &record.TotalCommits, &record.TotalPRs, &record.TotalIssues, &record.TotalReleases); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if finished.Valid {
				record.FinishedAt = finished.Time
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return results, nil
}

// GetAllRunRepos retrieves every per-repository row, oldest run first.
func (rs *StoreImpl) GetAllRunRepos() ([]contract.RunRepoRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(runReposTable, rs.backend)
	query := fmt.Sprintf("SELECT run_id, repo, commits, prs, issues, releases FROM %s ORDER BY run_id, repo", quotedTableName)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run repos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []contract.RunRepoRecord

	for rows.Next() {
		var record contract.RunRepoRecord
		if err := rows.Scan(&record.RunID, &record.Repo, &record.Commits, &record.PRs, &record.Issues, &record.Releases); err != nil {
			return nil, fmt.Errorf("failed to scan run repo: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run repos: %w", err)
	}

	return results, nil
}

// Close closes the underlying connection.
func (rs *StoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("%q", name)
	}
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}
