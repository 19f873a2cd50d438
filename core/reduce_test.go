package core

import (
	"fmt"
	"testing"

	"github.com/gitretro/gitretro/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordWithCommits(name string, byAuthor map[string]int, total int) schema.RepositoryRecord {
	rec := schema.RepositoryRecord{Name: name}
	rec.Commits = schema.NewCommitStats()
	rec.PullRequests = schema.NewPullRequestStats()
	rec.Issues = schema.NewIssueStats()
	rec.Commits.Total = total
	for author, count := range byAuthor {
		schema.Incr(rec.Commits.ByAuthor, author, count)
	}
	return rec
}

func TestReduceTotals(t *testing.T) {
	a := recordWithCommits("core", nil, 5)
	a.PullRequests.Total = 2
	a.Issues.Total = 1
	a.Releases.Total = 1
	schema.Incr(a.Commits.Additions, "alice", 100)
	schema.Incr(a.Commits.Deletions, "alice", 30)

	b := recordWithCommits("web", nil, 7)
	b.PullRequests.Total = 3
	b.Issues.Total = 4
	schema.Incr(b.Commits.Additions, "bob", 50)
	schema.Incr(b.Commits.Deletions, "bob", 20)

	summary := Reduce([]schema.RepositoryRecord{a, b})

	assert.Equal(t, 2, summary.TotalRepositories)
	assert.Equal(t, 12, summary.TotalCommits)
	assert.Equal(t, 5, summary.TotalPRs)
	assert.Equal(t, 5, summary.TotalIssues)
	assert.Equal(t, 1, summary.TotalReleases)
	assert.Equal(t, 150, summary.TotalAdditions)
	assert.Equal(t, 50, summary.TotalDeletions)
}

func TestReduceMergesContributorsAcrossRepos(t *testing.T) {
	a := recordWithCommits("core", nil, 5)
	schema.Incr(a.Commits.ByAuthor, "alice", 3)
	schema.Incr(a.Commits.ByAuthor, "bob", 2)

	b := recordWithCommits("web", nil, 1)
	schema.Incr(b.Commits.ByAuthor, "alice", 1)

	summary := Reduce([]schema.RepositoryRecord{a, b})

	require.Len(t, summary.TopContributors, 2)
	assert.Equal(t, schema.NameCount{Name: "alice", Count: 4}, summary.TopContributors[0])
	assert.Equal(t, schema.NameCount{Name: "bob", Count: 2}, summary.TopContributors[1])
}

func TestReduceRankingTieBreaksByEncounterOrder(t *testing.T) {
	rec := recordWithCommits("core", nil, 12)
	// 12 contributors all tied at one commit each
	names := make([]string, 0, 12)
	for i := range 12 {
		name := fmt.Sprintf("dev-%02d", i)
		names = append(names, name)
		schema.Incr(rec.Commits.ByAuthor, name, 1)
	}

	summary := Reduce([]schema.RepositoryRecord{rec})

	require.Len(t, summary.TopContributors, schema.TopRankLimit)
	for i, entry := range summary.TopContributors {
		assert.Equal(t, names[i], entry.Name, "tied entries must keep encounter order")
		assert.Equal(t, 1, entry.Count)
	}
}

func TestReduceIsDeterministic(t *testing.T) {
	build := func() []schema.RepositoryRecord {
		a := recordWithCommits("core", nil, 3)
		schema.Incr(a.Commits.ByAuthor, "alice", 1)
		schema.Incr(a.Commits.ByAuthor, "bob", 1)
		schema.Incr(a.Commits.ByAuthor, "carol", 1)
		b := recordWithCommits("web", nil, 2)
		schema.Incr(b.Commits.ByAuthor, "dave", 1)
		schema.Incr(b.Commits.ByAuthor, "alice", 1)
		return []schema.RepositoryRecord{a, b}
	}

	first := Reduce(build())
	for range 10 {
		assert.Equal(t, first, Reduce(build()))
	}
}

func TestReducePRSizeBuckets(t *testing.T) {
	rec := recordWithCommits("core", nil, 0)
	rec.PullRequests.SizesLines = []float64{50, 150, 600, 1500}

	summary := Reduce([]schema.RepositoryRecord{rec})

	assert.Equal(t, schema.PRSizeBuckets{Small: 1, Medium: 1, Large: 1, XLarge: 1}, summary.PRSizeBuckets)
}

func TestReduceApprovalRate(t *testing.T) {
	// No PRs means no division
	empty := Reduce([]schema.RepositoryRecord{recordWithCommits("core", nil, 0)})
	assert.Zero(t, empty.ApprovalRatePct)
	assert.Zero(t, empty.AvgReviewsPerPR)

	rec := recordWithCommits("core", nil, 0)
	rec.PullRequests.Total = 10
	rec.PullRequests.Merged = 7
	schema.Incr(rec.PullRequests.ByReviewer, "alice", 4)
	schema.Incr(rec.PullRequests.ByReviewer, "bob", 1)

	summary := Reduce([]schema.RepositoryRecord{rec})
	assert.InDelta(t, 70.0, summary.ApprovalRatePct, 1e-9)
	assert.InDelta(t, 0.5, summary.AvgReviewsPerPR, 1e-9)
}

func TestReduceHistograms(t *testing.T) {
	a := recordWithCommits("core", nil, 3)
	schema.Incr(a.Commits.ByMonth, "2026-02", 2)
	schema.Incr(a.Commits.ByMonth, "2026-01", 1)
	schema.Incr(a.Commits.ByWeekday, "Friday", 2)
	schema.Incr(a.Commits.ByWeekday, "Monday", 1)

	summary := Reduce([]schema.RepositoryRecord{a})

	assert.Equal(t, []schema.MonthCount{
		{Month: "2026-01", Count: 1},
		{Month: "2026-02", Count: 2},
	}, summary.CommitsByMonth)

	require.Len(t, summary.CommitsByWeekday, 7)
	assert.Equal(t, schema.NameCount{Name: "Monday", Count: 1}, summary.CommitsByWeekday[0])
	assert.Equal(t, schema.NameCount{Name: "Friday", Count: 2}, summary.CommitsByWeekday[4])
	assert.Equal(t, schema.NameCount{Name: "Sunday", Count: 0}, summary.CommitsByWeekday[6])
}

func TestReduceLanguages(t *testing.T) {
	a := recordWithCommits("core", nil, 0)
	a.Language = "Go"
	b := recordWithCommits("web", nil, 0)
	b.Language = "TypeScript"
	c := recordWithCommits("api", nil, 0)
	c.Language = "Go"
	d := recordWithCommits("docs", nil, 0)

	summary := Reduce([]schema.RepositoryRecord{a, b, c, d})
	assert.Equal(t, map[string]int{"Go": 2, "TypeScript": 1}, summary.Languages)
}
