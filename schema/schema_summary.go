package schema

import "time"

// NameCount is one labeled counter, used for rankings and histograms where
// order carries meaning and a plain map would lose it.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MonthCount is one month's commit total, keyed YYYY-MM.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// PRSizeBuckets is the pull request size distribution in total changed
// lines: Small <100, Medium 100-500, Large 500-1000, XLarge >=1000.
type PRSizeBuckets struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
	XLarge int `json:"xlarge"`
}

// Add buckets one size sample.
func (b *PRSizeBuckets) Add(lines float64) {
	switch {
	case lines < 100:
		b.Small++
	case lines < 500:
		b.Medium++
	case lines < 1000:
		b.Large++
	default:
		b.XLarge++
	}
}

// AggregateSummary is the cross-repository reduction of one run. It is
// recomputed from the completed set of RepositoryRecords every run and
// never persisted on its own.
type AggregateSummary struct {
	TotalRepositories int            `json:"total_repositories"`
	TotalCommits      int            `json:"total_commits"`
	TotalPRs          int            `json:"total_prs"`
	TotalIssues       int            `json:"total_issues"`
	TotalReleases     int            `json:"total_releases"`
	TotalAdditions    int            `json:"total_additions"`
	TotalDeletions    int            `json:"total_deletions"`
	TopContributors   []NameCount    `json:"top_contributors"`
	TopReviewers      []NameCount    `json:"top_reviewers"`
	Languages         map[string]int `json:"languages"`
	CommitsByMonth    []MonthCount   `json:"commits_by_month"`
	CommitsByWeekday  []NameCount    `json:"commits_by_weekday"`
	PRSizeBuckets     PRSizeBuckets  `json:"pr_size_buckets"`
	ApprovalRatePct   float64        `json:"approval_rate_pct"`
	AvgReviewsPerPR   float64        `json:"avg_reviews_per_pr"`
}

// Period is the inclusive reporting window, formatted YYYY-MM-DD.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AggregateMetrics is the single document handed to the report emitters.
// GeneratedAt is wall-clock derived and excluded from any determinism
// comparison between runs.
type AggregateMetrics struct {
	Organization string             `json:"organization"`
	Period       Period             `json:"period"`
	Repositories []RepositoryRecord `json:"repositories"`
	Summary      AggregateSummary   `json:"summary"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
