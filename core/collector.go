// Package core has the collection pipeline and cross-repository reduction.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
)

// RunState tracks the collector's progress through one run.
type RunState string

// Collector run states, in order of progression.
const (
	StateInitialized          RunState = "initialized"
	StateRepositoriesResolved RunState = "repositories_resolved"
	StateCollecting           RunState = "collecting"
	StateSummarizing          RunState = "summarizing"
	StateComplete             RunState = "complete"
	StateFailed               RunState = "failed"
)

// Collector orchestrates one metrics collection run: resolving the
// repository set, collecting per-repository records concurrently, and
// reducing them into the aggregate document.
type Collector struct {
	cfg     *contract.Config
	gateway contract.HostGateway
	mirror  contract.MirrorProvider
	cache   contract.CacheStore
	runs    contract.RunStore
	state   RunState

	// now allows tests to pin the generated-at timestamp.
	now func() time.Time
}

// NewCollector builds a Collector. cache, mirror and runs may be nil when
// the corresponding feature is disabled.
func NewCollector(cfg *contract.Config, gateway contract.HostGateway, mirror contract.MirrorProvider, cache contract.CacheStore, runs contract.RunStore) *Collector {
	return &Collector{
		cfg:     cfg,
		gateway: gateway,
		mirror:  mirror,
		cache:   cache,
		runs:    runs,
		state:   StateInitialized,
		now:     time.Now,
	}
}

// State returns the collector's current run state.
func (c *Collector) State() RunState {
	return c.state
}

// Run executes the full pipeline and returns the aggregate document.
// A repository that fails an individual fetch category degrades to
// zero-valued stats for that category; only an empty repository set or a
// failed listing aborts the run.
func (c *Collector) Run(ctx context.Context) (*schema.AggregateMetrics, error) {
	repos, err := c.resolveRepositories(ctx)
	if err != nil {
		c.state = StateFailed
		return nil, err
	}
	if len(repos) == 0 {
		c.state = StateFailed
		return nil, errors.New("no repositories to collect")
	}
	c.state = StateRepositoriesResolved

	var runID int64
	if c.runs != nil {
		runID, err = c.runs.BeginRun(c.now(), c.cfg.Organization, c.cfg.WindowStart, c.cfg.WindowEnd)
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
			runID = 0
		}
	}

	c.state = StateCollecting
	records := c.collectAll(ctx, repos)

	c.state = StateSummarizing
	if c.runs != nil && runID > 0 {
		for _, rec := range records {
			if err := c.runs.RecordRepo(runID, rec); err != nil {
				contract.LogWarn(fmt.Sprintf("Failed to record run repo %s", rec.Name), err)
			}
		}
	}

	summary := Reduce(records)

	if c.runs != nil && runID > 0 {
		if err := c.runs.EndRun(runID, c.now(), summary); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	c.state = StateComplete
	return &schema.AggregateMetrics{
		Organization: c.cfg.Organization,
		Period: schema.Period{
			Start: c.cfg.WindowStart.Format("2006-01-02"),
			End:   c.cfg.WindowEnd.Format("2006-01-02"),
		},
		Repositories: records,
		Summary:      summary,
		GeneratedAt:  c.now().UTC(),
	}, nil
}

// resolveRepositories turns the configured repository names into entity
// records, or lists the whole organization when no names were given.
// An explicitly-named repository that cannot be fetched is skipped with a
// warning rather than aborting the run.
func (c *Collector) resolveRepositories(ctx context.Context) ([]schema.Repository, error) {
	if len(c.cfg.Repositories) > 0 {
		repos := make([]schema.Repository, 0, len(c.cfg.Repositories))
		for _, name := range c.cfg.Repositories {
			repo, err := c.gateway.GetRepository(ctx, c.cfg.Organization, name)
			if err != nil {
				contract.LogWarn(fmt.Sprintf("Skipping repository %s", name), err)
				continue
			}
			repos = append(repos, repo)
		}
		return repos, nil
	}

	repos, err := c.gateway.ListRepositories(ctx, c.cfg.Organization, contract.ListOptions{
		IncludeArchived: c.cfg.IncludeArchived,
		IncludeForks:    c.cfg.IncludeForks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories for %s: %w", c.cfg.Organization, err)
	}
	return repos, nil
}

// collectAll runs the bounded worker pool over the repository set. Each
// worker writes its record into the slot matching the repository's position,
// so the output order follows the input order no matter how the workers
// interleave.
func (c *Collector) collectAll(ctx context.Context, repos []schema.Repository) []schema.RepositoryRecord {
	records := make([]schema.RepositoryRecord, len(repos))
	jobCh := make(chan int, len(repos))
	var wg sync.WaitGroup

	workers := c.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	// Start worker pool
	for range workers {
		wg.Go(func() {
			for idx := range jobCh {
				records[idx] = c.collectRepository(ctx, repos[idx])
			}
		})
	}

	// Send repository indexes to worker channel
	for i := range repos {
		jobCh <- i
	}
	close(jobCh)

	wg.Wait()
	return records
}

// collectRepository produces the full metrics record for one repository,
// consulting the cache first and degrading per category on fetch failure.
func (c *Collector) collectRepository(ctx context.Context, repo schema.Repository) schema.RepositoryRecord {
	desc := contract.MetricsDescriptor(c.cfg.Organization, repo.Name, c.cfg.WindowStart, c.cfg.WindowEnd)
	if c.cache != nil {
		var cached schema.RepositoryRecord
		if c.cache.Get(desc, &cached) {
			contract.LogInfo("Using cached metrics for %s", repo.FullName)
			return cached
		}
	}

	contract.LogInfo("Collecting %s", repo.FullName)
	rec := schema.RepositoryRecord{
		Name:        repo.Name,
		FullName:    repo.FullName,
		URL:         repo.URL,
		Description: repo.Description,
		Language:    repo.Language,
		Stars:       repo.Stars,
		Forks:       repo.Forks,
	}

	rec.Commits = c.collectCommitStats(ctx, repo)
	rec.PullRequests = c.collectPullRequestStats(ctx, repo)
	rec.Issues = c.collectIssueStats(ctx, repo)
	rec.Releases = c.collectReleaseStats(ctx, repo)

	if c.cache != nil {
		c.cache.Set(desc, rec)
	}
	return rec
}

// collectCommitStats prefers the local mirror when one is configured,
// falling back to the API path when the mirror cannot serve the history.
func (c *Collector) collectCommitStats(ctx context.Context, repo schema.Repository) schema.CommitStats {
	if c.mirror != nil && c.cfg.LocalPathTemplate != "" {
		stats, err := c.collectMirrorCommits(ctx, repo)
		if err == nil {
			return stats
		}
		contract.LogWarn(fmt.Sprintf("Mirror history unavailable for %s, using API", repo.Name), err)
	}

	stats := schema.NewCommitStats()
	commits, err := c.gateway.FetchCommits(ctx, c.cfg.Organization, repo.Name, c.cfg.WindowStart, c.cfg.WindowEnd)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Failed to fetch commits for %s", repo.Name), err)
		return stats
	}

	for _, commit := range commits {
		if !contract.InWindow(commit.AuthoredAt, c.cfg.WindowStart, c.cfg.WindowEnd) {
			continue
		}
		author := commit.Author()
		stats.Total++
		schema.Incr(stats.ByAuthor, author, 1)
		schema.Incr(stats.ByMonth, contract.MonthKey(commit.AuthoredAt), 1)
		schema.Incr(stats.ByWeekday, contract.WeekdayName(commit.AuthoredAt), 1)
		if commit.Additions > 0 || commit.Deletions > 0 || commit.FilesChanged > 0 {
			schema.Incr(stats.Additions, author, commit.Additions)
			schema.Incr(stats.Deletions, author, commit.Deletions)
			schema.Incr(stats.FilesChanged, author, commit.FilesChanged)
		}
	}
	return stats
}

// collectMirrorCommits ensures the local working copy and walks its history.
func (c *Collector) collectMirrorCommits(ctx context.Context, repo schema.Repository) (schema.CommitStats, error) {
	result, err := c.mirror.Ensure(ctx, c.cfg.Organization, repo.Name, c.cfg.LocalPathTemplate, c.cfg.Token)
	if err != nil {
		return schema.CommitStats{}, err
	}
	if result.Status == schema.MirrorSkipped {
		contract.LogWarn(fmt.Sprintf("Mirror for %s is stale (%s), reading anyway", repo.Name, result.Reason), nil)
	}
	return c.mirror.CollectCommits(ctx, result.Path, c.cfg.WindowStart, c.cfg.WindowEnd)
}

func (c *Collector) collectPullRequestStats(ctx context.Context, repo schema.Repository) schema.PullRequestStats {
	stats := schema.NewPullRequestStats()
	prs, err := c.gateway.FetchPullRequests(ctx, c.cfg.Organization, repo.Name)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Failed to fetch pull requests for %s", repo.Name), err)
		return stats
	}

	for _, pr := range prs {
		if !contract.InWindow(pr.CreatedAt, c.cfg.WindowStart, c.cfg.WindowEnd) {
			continue
		}
		stats.Total++
		schema.Incr(stats.ByAuthor, pr.Author, 1)

		switch {
		case pr.Merged:
			stats.Merged++
			if !pr.MergedAt.IsZero() {
				stats.MergeTimesHours = append(stats.MergeTimesHours, contract.HoursBetween(pr.CreatedAt, pr.MergedAt))
			}
		case pr.State == "closed":
			stats.Closed++
		default:
			stats.Open++
		}

		if pr.Additions > 0 || pr.Deletions > 0 {
			stats.SizesLines = append(stats.SizesLines, float64(pr.Additions+pr.Deletions))
		}
		for _, reviewer := range pr.Reviewers {
			schema.Incr(stats.ByReviewer, reviewer, 1)
		}
		for _, commenter := range pr.Commenters {
			schema.Incr(stats.Comments, commenter, 1)
		}
	}

	stats.Finalize()
	return stats
}

func (c *Collector) collectIssueStats(ctx context.Context, repo schema.Repository) schema.IssueStats {
	stats := schema.NewIssueStats()
	issues, err := c.gateway.FetchIssues(ctx, c.cfg.Organization, repo.Name, c.cfg.WindowStart)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Failed to fetch issues for %s", repo.Name), err)
		return stats
	}

	for _, issue := range issues {
		// The upstream issue listing reports pull requests too
		if issue.IsPullRequest {
			continue
		}
		if !contract.InWindow(issue.CreatedAt, c.cfg.WindowStart, c.cfg.WindowEnd) {
			continue
		}
		stats.Total++
		schema.Incr(stats.ByAuthor, issue.Author, 1)
		if issue.State == "closed" {
			stats.Closed++
			if !issue.ClosedAt.IsZero() {
				stats.CloseTimesHours = append(stats.CloseTimesHours, contract.HoursBetween(issue.CreatedAt, issue.ClosedAt))
			}
		} else {
			stats.Open++
		}
	}

	stats.Finalize()
	return stats
}

func (c *Collector) collectReleaseStats(ctx context.Context, repo schema.Repository) schema.ReleaseStats {
	stats := schema.ReleaseStats{}
	releases, err := c.gateway.FetchReleases(ctx, c.cfg.Organization, repo.Name)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Failed to fetch releases for %s", repo.Name), err)
		return stats
	}

	for _, release := range releases {
		if !contract.InWindow(release.CreatedAt, c.cfg.WindowStart, c.cfg.WindowEnd) {
			continue
		}
		stats.Total++
		stats.Releases = append(stats.Releases, schema.ReleaseInfo{
			Name:   release.Title,
			Tag:    release.Tag,
			Date:   release.CreatedAt.Format("2006-01-02"),
			Author: release.Author,
		})
	}
	return stats
}
