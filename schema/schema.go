// Package schema has models and shared constants for all parts of gitretro.
package schema

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CountMap is an insertion-order-preserving name→count mapping. Rankings
// break ties by first-encounter order, so the accumulators must remember
// the order keys were discovered; a plain map cannot.
type CountMap = *orderedmap.OrderedMap[string, int]

// NewCountMap returns an empty CountMap.
func NewCountMap() CountMap {
	return orderedmap.New[string, int]()
}

// Incr adds delta to key's counter, registering the key on first use.
func Incr(m CountMap, key string, delta int) {
	v, _ := m.Get(key)
	m.Set(key, v+delta)
}

// SumCounts returns the sum of all counters in m. A nil map sums to zero,
// so cached records from before a field existed stay readable.
func SumCounts(m CountMap) int {
	if m == nil {
		return 0
	}
	total := 0
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value
	}
	return total
}

// MergeCounts folds src into dst, summing on collision. A nil src is a
// no-op.
func MergeCounts(dst, src CountMap) {
	if src == nil {
		return
	}
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		Incr(dst, pair.Key, pair.Value)
	}
}

// CommitStats holds the commit breakdown for one repository within the
// reporting window. Every by-X map covers the same set of counted commits,
// so Total always equals the sum of any one map's values.
type CommitStats struct {
	Total        int      `json:"total"`
	ByAuthor     CountMap `json:"by_author"`
	ByMonth      CountMap `json:"by_month"`
	ByWeekday    CountMap `json:"by_weekday"`
	Additions    CountMap `json:"additions"`
	Deletions    CountMap `json:"deletions"`
	FilesChanged CountMap `json:"files_changed"`
}

// NewCommitStats returns a CommitStats with all maps allocated.
func NewCommitStats() CommitStats {
	return CommitStats{
		ByAuthor:     NewCountMap(),
		ByMonth:      NewCountMap(),
		ByWeekday:    NewCountMap(),
		Additions:    NewCountMap(),
		Deletions:    NewCountMap(),
		FilesChanged: NewCountMap(),
	}
}

// PullRequestStats holds the pull request breakdown for one repository.
// MergeTimesHours and SizesLines keep the raw samples; the averages are
// derived from them when the record is finalized, never stored separately.
type PullRequestStats struct {
	Total             int       `json:"total"`
	Merged            int       `json:"merged"`
	Closed            int       `json:"closed"`
	Open              int       `json:"open"`
	ByAuthor          CountMap  `json:"by_author"`
	ByReviewer        CountMap  `json:"by_reviewer"`
	Comments          CountMap  `json:"comments"`
	MergeTimesHours   []float64 `json:"merge_times_hours"`
	SizesLines        []float64 `json:"sizes_lines"`
	AvgMergeTimeHours float64   `json:"avg_merge_time_hours"`
	AvgSizeLines      float64   `json:"avg_size_lines"`
}

// NewPullRequestStats returns a PullRequestStats with all maps allocated.
func NewPullRequestStats() PullRequestStats {
	return PullRequestStats{
		ByAuthor:   NewCountMap(),
		ByReviewer: NewCountMap(),
		Comments:   NewCountMap(),
	}
}

// Finalize computes the derived averages from the collected samples.
func (p *PullRequestStats) Finalize() {
	p.AvgMergeTimeHours = round2(mean(p.MergeTimesHours))
	p.AvgSizeLines = float64(int(mean(p.SizesLines) + 0.5))
}

// IssueStats holds the issue breakdown for one repository. Entities that
// are pull requests under the hood are excluded before counting.
type IssueStats struct {
	Total             int       `json:"total"`
	Open              int       `json:"open"`
	Closed            int       `json:"closed"`
	ByAuthor          CountMap  `json:"by_author"`
	CloseTimesHours   []float64 `json:"close_times_hours"`
	AvgCloseTimeHours float64   `json:"avg_close_time_hours"`
}

// NewIssueStats returns an IssueStats with the author map allocated.
func NewIssueStats() IssueStats {
	return IssueStats{ByAuthor: NewCountMap()}
}

// Finalize computes the derived close-time average from the samples.
func (i *IssueStats) Finalize() {
	i.AvgCloseTimeHours = round2(mean(i.CloseTimesHours))
}

// ReleaseInfo is one published release inside the reporting window.
type ReleaseInfo struct {
	Name   string `json:"name"`
	Tag    string `json:"tag"`
	Date   string `json:"date"`
	Author string `json:"author"`
}

// ReleaseStats holds the releases published in the reporting window.
type ReleaseStats struct {
	Total    int           `json:"total"`
	Releases []ReleaseInfo `json:"releases"`
}

// RepositoryRecord is the normalized per-repository metrics bundle.
// It is produced exactly once per repository per run (or read verbatim
// from the cache) and never mutated afterwards.
type RepositoryRecord struct {
	Name         string           `json:"name"`
	FullName     string           `json:"full_name"`
	URL          string           `json:"url"`
	Description  string           `json:"description"`
	Language     string           `json:"language"`
	Stars        int              `json:"stars"`
	Forks        int              `json:"forks"`
	Commits      CommitStats      `json:"commits"`
	PullRequests PullRequestStats `json:"pull_requests"`
	Issues       IssueStats       `json:"issues"`
	Releases     ReleaseStats     `json:"releases"`
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int(v*100-0.5)) / 100
	}
	return float64(int(v*100+0.5)) / 100
}
