package outwriter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gitretro/gitretro/schema"
)

// writeMarkdown renders the retrospective as a Markdown document: the
// overall summary, the rankings, activity by month and a per-repository
// breakdown.
func writeMarkdown(w io.Writer, metrics *schema.AggregateMetrics) error {
	var sb strings.Builder
	summary := metrics.Summary

	fmt.Fprintf(&sb, "# Team Retrospective - %s\n\n", metrics.Organization)
	fmt.Fprintf(&sb, "**Period:** %s to %s  \n", metrics.Period.Start, metrics.Period.End)
	fmt.Fprintf(&sb, "**Generated:** %s\n\n", metrics.GeneratedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("---\n\n## Summary\n\n")

	sb.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&sb, "| Repositories | %d |\n", summary.TotalRepositories)
	fmt.Fprintf(&sb, "| Commits | %d |\n", summary.TotalCommits)
	fmt.Fprintf(&sb, "| Pull Requests | %d |\n", summary.TotalPRs)
	fmt.Fprintf(&sb, "| Issues | %d |\n", summary.TotalIssues)
	fmt.Fprintf(&sb, "| Releases | %d |\n", summary.TotalReleases)
	fmt.Fprintf(&sb, "| Lines Added | %d |\n", summary.TotalAdditions)
	fmt.Fprintf(&sb, "| Lines Removed | %d |\n", summary.TotalDeletions)

	sb.WriteString("\n---\n\n## Top Contributors\n\n")
	for i, entry := range summary.TopContributors {
		fmt.Fprintf(&sb, "%d. **%s**: %d commits\n", i+1, entry.Name, entry.Count)
	}

	sb.WriteString("\n---\n\n## Top Reviewers\n\n")
	for i, entry := range summary.TopReviewers {
		fmt.Fprintf(&sb, "%d. **%s**: %d reviews\n", i+1, entry.Name, entry.Count)
	}

	sb.WriteString("\n---\n\n## Languages\n\n")
	for _, entry := range rankedLanguages(summary.Languages) {
		fmt.Fprintf(&sb, "- **%s**: %d repository(ies)\n", entry.Name, entry.Count)
	}

	sb.WriteString("\n---\n\n## Activity by Month\n\n")
	for _, entry := range summary.CommitsByMonth {
		fmt.Fprintf(&sb, "- **%s**: %d commits\n", entry.Month, entry.Count)
	}

	sb.WriteString("\n---\n\n## Repository Breakdown\n\n")
	for _, repo := range metrics.Repositories {
		description := repo.Description
		if description == "" {
			description = "_No description_"
		}
		fmt.Fprintf(&sb, "### [%s](%s)\n\n%s\n\n", repo.Name, repo.URL, description)
		sb.WriteString("**Stats:**\n")
		fmt.Fprintf(&sb, "- Commits: %d\n", repo.Commits.Total)
		fmt.Fprintf(&sb, "- Pull Requests: %d (%d merged)\n", repo.PullRequests.Total, repo.PullRequests.Merged)
		fmt.Fprintf(&sb, "- Issues: %d (%d closed)\n", repo.Issues.Total, repo.Issues.Closed)
		fmt.Fprintf(&sb, "- Releases: %d\n", repo.Releases.Total)
		fmt.Fprintf(&sb, "- Average merge time: %.1fh\n", repo.PullRequests.AvgMergeTimeHours)
		fmt.Fprintf(&sb, "- Average PR size: %.0f lines\n\n", repo.PullRequests.AvgSizeLines)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// rankedLanguages orders the language histogram by repository count
// descending, breaking ties alphabetically so output stays stable.
func rankedLanguages(languages map[string]int) []schema.NameCount {
	ranked := make([]schema.NameCount, 0, len(languages))
	for name, count := range languages {
		ranked = append(ranked, schema.NameCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}
