package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *contract.Config {
	return &contract.Config{
		Organization: "acme",
		Token:        "token",
		WindowStart:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:    time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Workers:      2,
	}
}

func testRepo(name string) schema.Repository {
	return schema.Repository{
		Name:     name,
		FullName: "acme/" + name,
		URL:      "https://github.com/acme/" + name,
		Language: "Go",
	}
}

// stubCategories registers the four per-repository fetches with fixed data.
func stubCategories(gateway *contract.MockHostGateway, name string) {
	commits := []schema.Commit{
		{AuthorName: "alice", AuthoredAt: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), Additions: 10, Deletions: 2, FilesChanged: 1},
		{AuthorName: "bob", AuthoredAt: time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)},
		// Outside the window, must be dropped
		{AuthorName: "carol", AuthoredAt: time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)},
	}
	prs := []schema.PullRequest{
		{
			Author:    "alice",
			CreatedAt: time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC),
			MergedAt:  time.Date(2026, 2, 5, 21, 0, 0, 0, time.UTC),
			Merged:    true,
			Additions: 80,
			Deletions: 20,
			Reviewers: []string{"bob"},
		},
		{Author: "bob", CreatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), State: "open"},
	}
	issues := []schema.Issue{
		{Author: "carol", CreatedAt: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), State: "open"},
		{Author: "bot", CreatedAt: time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC), IsPullRequest: true},
	}
	releases := []schema.Release{
		{Title: "v1.2.0", Tag: "v1.2.0", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Author: "alice"},
	}
	gateway.On("FetchCommits", mock.Anything, "acme", name, mock.Anything, mock.Anything).Return(commits, nil)
	gateway.On("FetchPullRequests", mock.Anything, "acme", name).Return(prs, nil)
	gateway.On("FetchIssues", mock.Anything, "acme", name, mock.Anything).Return(issues, nil)
	gateway.On("FetchReleases", mock.Anything, "acme", name).Return(releases, nil)
}

func TestCollectorRunIsDeterministic(t *testing.T) {
	generatedAt := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	run := func() *schema.AggregateMetrics {
		gateway := &contract.MockHostGateway{}
		gateway.On("ListRepositories", mock.Anything, "acme", mock.Anything).
			Return([]schema.Repository{testRepo("core"), testRepo("web")}, nil)
		stubCategories(gateway, "core")
		stubCategories(gateway, "web")

		collector := NewCollector(testConfig(), gateway, nil, nil, nil)
		collector.now = func() time.Time { return generatedAt }
		metrics, err := collector.Run(context.Background())
		require.NoError(t, err)
		return metrics
	}

	first := run()
	assert.Equal(t, "acme", first.Organization)
	assert.Equal(t, "2026-01-01", first.Period.Start)
	assert.Equal(t, "2026-06-30", first.Period.End)
	assert.Equal(t, generatedAt, first.GeneratedAt)
	require.Len(t, first.Repositories, 2)
	assert.Equal(t, "core", first.Repositories[0].Name)
	assert.Equal(t, "web", first.Repositories[1].Name)

	// Identical inputs must produce an identical document no matter how
	// the two workers interleave.
	for range 5 {
		again := run()
		assert.Equal(t, first.Summary, again.Summary)
	}
}

func TestCollectorFiltersWindowAndBuildsStats(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("GetRepository", mock.Anything, "acme", "core").Return(testRepo("core"), nil)
	stubCategories(gateway, "core")

	cfg := testConfig()
	cfg.Repositories = []string{"core"}
	collector := NewCollector(cfg, gateway, nil, nil, nil)
	metrics, err := collector.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, metrics.Repositories, 1)
	rec := metrics.Repositories[0]

	// The 2025 commit falls outside the window
	assert.Equal(t, 2, rec.Commits.Total)
	alice, _ := rec.Commits.ByAuthor.Get("alice")
	assert.Equal(t, 1, alice)
	additions, _ := rec.Commits.Additions.Get("alice")
	assert.Equal(t, 10, additions)
	// bob's commit had no detail stats, so no zero entries appear
	_, hasBob := rec.Commits.Additions.Get("bob")
	assert.False(t, hasBob)

	assert.Equal(t, 2, rec.PullRequests.Total)
	assert.Equal(t, 1, rec.PullRequests.Merged)
	assert.Equal(t, 1, rec.PullRequests.Open)
	assert.InDelta(t, 12.0, rec.PullRequests.AvgMergeTimeHours, 1e-9)
	assert.InDelta(t, 100.0, rec.PullRequests.AvgSizeLines, 1e-9)
	// The zero-size open PR contributes no size sample
	require.Len(t, rec.PullRequests.SizesLines, 1)

	// The pull request surfaced through the issue listing is skipped
	assert.Equal(t, 1, rec.Issues.Total)
	assert.Equal(t, 1, rec.Issues.Open)

	require.Len(t, rec.Releases.Releases, 1)
	assert.Equal(t, "v1.2.0", rec.Releases.Releases[0].Tag)
	assert.Equal(t, "2026-03-01", rec.Releases.Releases[0].Date)
}

func TestCollectorDegradesFailedCategory(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("GetRepository", mock.Anything, "acme", "core").Return(testRepo("core"), nil)
	gateway.On("FetchCommits", mock.Anything, "acme", "core", mock.Anything, mock.Anything).
		Return([]schema.Commit{{AuthorName: "alice", AuthoredAt: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)}}, nil)
	gateway.On("FetchPullRequests", mock.Anything, "acme", "core").
		Return(nil, errors.New("api unavailable"))
	gateway.On("FetchIssues", mock.Anything, "acme", "core", mock.Anything).Return(nil, nil)
	gateway.On("FetchReleases", mock.Anything, "acme", "core").Return(nil, nil)

	cfg := testConfig()
	cfg.Repositories = []string{"core"}
	collector := NewCollector(cfg, gateway, nil, nil, nil)
	metrics, err := collector.Run(context.Background())
	require.NoError(t, err, "one failed category must not abort the run")

	rec := metrics.Repositories[0]
	assert.Equal(t, 1, rec.Commits.Total)
	assert.Zero(t, rec.PullRequests.Total)
	assert.Equal(t, StateComplete, collector.State())
}

func TestCollectorUsesCachedRecord(t *testing.T) {
	cached := schema.RepositoryRecord{Name: "core", Language: "Go"}
	cached.Commits = schema.NewCommitStats()
	cached.Commits.Total = 42
	cached.PullRequests = schema.NewPullRequestStats()
	cached.Issues = schema.NewIssueStats()

	gateway := &contract.MockHostGateway{}
	gateway.On("GetRepository", mock.Anything, "acme", "core").Return(testRepo("core"), nil)

	cache := &contract.MockCacheStore{}
	cache.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		out := args.Get(1).(*schema.RepositoryRecord)
		*out = cached
	}).Return(true)

	cfg := testConfig()
	cfg.Repositories = []string{"core"}
	collector := NewCollector(cfg, gateway, nil, cache, nil)
	metrics, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 42, metrics.Repositories[0].Commits.Total)
	// No fetch calls beyond repository resolution
	gateway.AssertNotCalled(t, "FetchCommits", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestCollectorSkipsUnresolvableRepository(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("GetRepository", mock.Anything, "acme", "gone").
		Return(schema.Repository{}, errors.New("404 not found"))
	gateway.On("GetRepository", mock.Anything, "acme", "core").Return(testRepo("core"), nil)
	stubCategories(gateway, "core")

	cfg := testConfig()
	cfg.Repositories = []string{"gone", "core"}
	collector := NewCollector(cfg, gateway, nil, nil, nil)
	metrics, err := collector.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics.Repositories, 1)
	assert.Equal(t, "core", metrics.Repositories[0].Name)
}

func TestCollectorFailsOnEmptyRepositorySet(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("ListRepositories", mock.Anything, "acme", mock.Anything).
		Return([]schema.Repository{}, nil)

	collector := NewCollector(testConfig(), gateway, nil, nil, nil)
	_, err := collector.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, collector.State())
}

func TestCollectorFailsOnListingError(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("ListRepositories", mock.Anything, "acme", mock.Anything).
		Return(nil, errors.New("connection refused"))

	collector := NewCollector(testConfig(), gateway, nil, nil, nil)
	_, err := collector.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme")
	assert.Equal(t, StateFailed, collector.State())
}

func TestCollectorRecordsRunTracking(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("GetRepository", mock.Anything, "acme", "core").Return(testRepo("core"), nil)
	stubCategories(gateway, "core")

	runs := &contract.MockRunStore{}
	runs.On("BeginRun", mock.Anything, "acme", mock.Anything, mock.Anything).Return(int64(7), nil)
	runs.On("RecordRepo", int64(7), mock.Anything).Return(nil)
	runs.On("EndRun", int64(7), mock.Anything, mock.Anything).Return(nil)

	cfg := testConfig()
	cfg.Repositories = []string{"core"}
	collector := NewCollector(cfg, gateway, nil, nil, runs)
	_, err := collector.Run(context.Background())
	require.NoError(t, err)
	runs.AssertExpectations(t)
}

func TestCollectorContinuesWhenRunTrackingFails(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("GetRepository", mock.Anything, "acme", "core").Return(testRepo("core"), nil)
	stubCategories(gateway, "core")

	runs := &contract.MockRunStore{}
	runs.On("BeginRun", mock.Anything, "acme", mock.Anything, mock.Anything).
		Return(int64(0), errors.New("database locked"))

	cfg := testConfig()
	cfg.Repositories = []string{"core"}
	collector := NewCollector(cfg, gateway, nil, nil, runs)
	metrics, err := collector.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, metrics.Repositories, 1)
	runs.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestCollectorPrefersMirrorHistory(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("GetRepository", mock.Anything, "acme", "core").Return(testRepo("core"), nil)
	gateway.On("FetchPullRequests", mock.Anything, "acme", "core").Return(nil, nil)
	gateway.On("FetchIssues", mock.Anything, "acme", "core", mock.Anything).Return(nil, nil)
	gateway.On("FetchReleases", mock.Anything, "acme", "core").Return(nil, nil)

	mirrorStats := schema.NewCommitStats()
	mirrorStats.Total = 9
	provider := &contract.MockMirrorProvider{}
	provider.On("Ensure", mock.Anything, "acme", "core", "/tmp/mirrors/{repo_name}", "token").
		Return(schema.MirrorResult{Repo: "core", Path: "/tmp/mirrors/core", Status: schema.MirrorUpdated}, nil)
	provider.On("CollectCommits", mock.Anything, "/tmp/mirrors/core", mock.Anything, mock.Anything).
		Return(mirrorStats, nil)

	cfg := testConfig()
	cfg.Repositories = []string{"core"}
	cfg.LocalPathTemplate = "/tmp/mirrors/{repo_name}"
	collector := NewCollector(cfg, gateway, provider, nil, nil)
	metrics, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9, metrics.Repositories[0].Commits.Total)
	gateway.AssertNotCalled(t, "FetchCommits", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCollectorFallsBackToAPIWhenMirrorFails(t *testing.T) {
	gateway := &contract.MockHostGateway{}
	gateway.On("GetRepository", mock.Anything, "acme", "core").Return(testRepo("core"), nil)
	stubCategories(gateway, "core")

	provider := &contract.MockMirrorProvider{}
	provider.On("Ensure", mock.Anything, "acme", "core", "/tmp/mirrors/{repo_name}", "token").
		Return(schema.MirrorResult{}, errors.New("clone failed"))

	cfg := testConfig()
	cfg.Repositories = []string{"core"}
	cfg.LocalPathTemplate = "/tmp/mirrors/{repo_name}"
	collector := NewCollector(cfg, gateway, provider, nil, nil)
	metrics, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.Repositories[0].Commits.Total)
}
