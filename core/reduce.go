package core

import (
	"sort"

	"github.com/gitretro/gitretro/schema"
)

// Reduce folds the per-repository records into the cross-repository
// summary. The fold visits repositories in slice order and each record's
// maps in their insertion order, so identical inputs always reduce to an
// identical summary, including ranking order among tied counts.
func Reduce(records []schema.RepositoryRecord) schema.AggregateSummary {
	summary := schema.AggregateSummary{
		TotalRepositories: len(records),
		Languages:         map[string]int{},
	}

	contributors := schema.NewCountMap()
	reviewers := schema.NewCountMap()
	months := schema.NewCountMap()
	weekdays := schema.NewCountMap()

	totalReviews := 0
	for _, rec := range records {
		summary.TotalCommits += rec.Commits.Total
		summary.TotalPRs += rec.PullRequests.Total
		summary.TotalIssues += rec.Issues.Total
		summary.TotalReleases += rec.Releases.Total
		summary.TotalAdditions += schema.SumCounts(rec.Commits.Additions)
		summary.TotalDeletions += schema.SumCounts(rec.Commits.Deletions)

		if rec.Language != "" {
			summary.Languages[rec.Language]++
		}

		schema.MergeCounts(contributors, rec.Commits.ByAuthor)
		schema.MergeCounts(reviewers, rec.PullRequests.ByReviewer)
		schema.MergeCounts(months, rec.Commits.ByMonth)
		schema.MergeCounts(weekdays, rec.Commits.ByWeekday)

		for _, size := range rec.PullRequests.SizesLines {
			summary.PRSizeBuckets.Add(size)
		}
		totalReviews += schema.SumCounts(rec.PullRequests.ByReviewer)
	}

	summary.TopContributors = topCounts(contributors, schema.TopRankLimit)
	summary.TopReviewers = topCounts(reviewers, schema.TopRankLimit)
	summary.CommitsByMonth = monthHistogram(months)
	summary.CommitsByWeekday = weekdayHistogram(weekdays)

	if summary.TotalPRs > 0 {
		summary.ApprovalRatePct = float64(mergedTotal(records)) / float64(summary.TotalPRs) * 100
		summary.AvgReviewsPerPR = float64(totalReviews) / float64(summary.TotalPRs)
	}

	return summary
}

func mergedTotal(records []schema.RepositoryRecord) int {
	total := 0
	for _, rec := range records {
		total += rec.PullRequests.Merged
	}
	return total
}

// topCounts ranks the accumulated counters by count descending and takes
// the first limit entries. The stable sort keeps first-encounter order
// among equal counts.
func topCounts(m schema.CountMap, limit int) []schema.NameCount {
	ranked := make([]schema.NameCount, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		ranked = append(ranked, schema.NameCount{Name: pair.Key, Count: pair.Value})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// monthHistogram sorts the observed months chronologically. YYYY-MM keys
// sort correctly as strings.
func monthHistogram(months schema.CountMap) []schema.MonthCount {
	result := make([]schema.MonthCount, 0, months.Len())
	for pair := months.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, schema.MonthCount{Month: pair.Key, Count: pair.Value})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month < result[j].Month
	})
	return result
}

// weekdayHistogram emits all seven weekdays in fixed Monday through Sunday
// order, with zero counts for days without commits.
func weekdayHistogram(weekdays schema.CountMap) []schema.NameCount {
	result := make([]schema.NameCount, 0, len(schema.WeekdayOrder))
	for _, day := range schema.WeekdayOrder {
		count, _ := weekdays.Get(day)
		result = append(result, schema.NameCount{Name: day, Count: count})
	}
	return result
}
