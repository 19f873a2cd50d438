// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/gitretro/gitretro/schema"
)

// ListOptions controls which repositories an organization listing returns.
type ListOptions struct {
	IncludeArchived bool
	IncludeForks    bool
}

// HostGateway defines the operations the collector needs from the remote
// host API. Implementations own pagination and rate-limit handling; the
// collector only sees fully-materialized entity slices.
// This allows the orchestration logic to be tested without network access.
type HostGateway interface {
	// ListRepositories returns the organization's repositories, filtered
	// per opts. Archived and forked repositories are excluded by default.
	ListRepositories(ctx context.Context, org string, opts ListOptions) ([]schema.Repository, error)

	// GetRepository fetches a single repository by name, for validating
	// explicitly-requested repositories.
	GetRepository(ctx context.Context, org, name string) (schema.Repository, error)

	// FetchCommits returns the commits authored within [since, until].
	FetchCommits(ctx context.Context, org, name string, since, until time.Time) ([]schema.Commit, error)

	// FetchPullRequests returns all pull requests with review and comment
	// attribution. Window filtering happens at the collector.
	FetchPullRequests(ctx context.Context, org, name string) ([]schema.PullRequest, error)

	// FetchIssues returns all issues updated since the given time,
	// including entities that are pull requests under the hood.
	FetchIssues(ctx context.Context, org, name string, since time.Time) ([]schema.Issue, error)

	// FetchReleases returns all releases. Window filtering happens at the
	// collector because the upstream listing has no since parameter.
	FetchReleases(ctx context.Context, org, name string) ([]schema.Release, error)
}

// MirrorProvider defines the local working copy data source. It is used
// as a faster alternative to the API path for commit history.
type MirrorProvider interface {
	// Ensure guarantees an up-to-date local clone of org/repo under the
	// path template. Clone and pull failures degrade to a skipped result,
	// not an error; an error means the path cannot be used at all.
	Ensure(ctx context.Context, org, repo, pathTemplate, token string) (schema.MirrorResult, error)

	// CollectCommits walks commit history across all branches of the
	// working copy at path, bounded by the window. An error tells the
	// caller to fall back to the API path.
	CollectCommits(ctx context.Context, path string, start, end time.Time) (schema.CommitStats, error)
}

// CacheDescriptor identifies one cacheable request. It exists only to
// derive a cache fingerprint and is stored alongside the payload for
// inspection; it is never read back programmatically.
type CacheDescriptor struct {
	Kind         string `json:"kind"`
	Organization string `json:"organization"`
	Repository   string `json:"repository"`
	WindowStart  string `json:"window_start"`
	WindowEnd    string `json:"window_end"`
}

// MetricsDescriptor builds the descriptor for one repository's metrics in
// one window. Identical inputs always produce an identical descriptor.
func MetricsDescriptor(org, repo string, start, end time.Time) CacheDescriptor {
	return CacheDescriptor{
		Kind:         "repository_metrics",
		Organization: org,
		Repository:   repo,
		WindowStart:  start.UTC().Format(time.RFC3339),
		WindowEnd:    end.UTC().Format(time.RFC3339),
	}
}

// CacheStore defines the expiring key/value store for collected metrics.
// This allows the store to be mocked for testing.
type CacheStore interface {
	// Get unmarshals the cached payload for desc into out and reports
	// whether a fresh entry existed. Expired or corrupt entries are
	// removed and reported as absent; Get never fails the caller.
	Get(desc CacheDescriptor, out any) bool

	// Set stores the payload for desc, overwriting any previous entry.
	// Serialization failures are logged, never propagated.
	Set(desc CacheDescriptor, payload any)

	// Sweep removes entries older than maxAge, or every entry when
	// maxAge is zero or negative. It returns the number removed and
	// tolerates unreadable entries individually.
	Sweep(maxAge time.Duration) (int, error)

	// Stats summarizes the cache directory contents.
	Stats() (schema.CacheStats, error)
}

// RunStore tracks collection runs for later inspection and export.
type RunStore interface {
	// BeginRun creates a new run row and returns its ID.
	BeginRun(startedAt time.Time, org string, windowStart, windowEnd time.Time) (int64, error)

	// EndRun finalizes the run with its completion time and summary totals.
	EndRun(runID int64, finishedAt time.Time, summary schema.AggregateSummary) error

	// RecordRepo stores one repository's totals under the run.
	RecordRepo(runID int64, rec schema.RepositoryRecord) error

	// GetStatus returns status information about the run store.
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run, oldest first.
	GetAllRuns() ([]RunRecord, error)

	// GetAllRunRepos returns every per-repository row, oldest run first.
	GetAllRunRepos() ([]RunRepoRecord, error)

	// Close closes the underlying connection.
	Close() error
}

// RunRecord is one stored collection run.
type RunRecord struct {
	ID            int64
	Organization  string
	WindowStart   time.Time
	WindowEnd     time.Time
	StartedAt     time.Time
	FinishedAt    time.Time
	TotalRepos    int
	TotalCommits  int
	TotalPRs      int
	TotalIssues   int
	TotalReleases int
}

// RunRepoRecord is one repository's totals within a stored run.
type RunRepoRecord struct {
	RunID    int64
	Repo     string
	Commits  int
	PRs      int
	Issues   int
	Releases int
}
