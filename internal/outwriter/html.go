package outwriter

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aymerick/raymond"
	"github.com/gitretro/gitretro/schema"
)

//go:embed templates/report.hbs
var reportTemplate string

// writeHTML renders the interactive HTML report. Charts are emitted as
// Plotly figure specs and drawn client-side from the CDN build.
func writeHTML(w io.Writer, metrics *schema.AggregateMetrics) error {
	charts, err := buildCharts(metrics)
	if err != nil {
		return err
	}

	summary := metrics.Summary
	data := map[string]any{
		"organization":     metrics.Organization,
		"start_date":       metrics.Period.Start,
		"end_date":         metrics.Period.End,
		"generated_at":     metrics.GeneratedAt.Format("2006-01-02 15:04:05"),
		"total_repos":      summary.TotalRepositories,
		"total_commits":    summary.TotalCommits,
		"total_prs":        summary.TotalPRs,
		"total_issues":     summary.TotalIssues,
		"total_releases":   summary.TotalReleases,
		"total_additions":  summary.TotalAdditions,
		"total_deletions":  summary.TotalDeletions,
		"top_contributors": rankedEntries(summary.TopContributors),
		"top_reviewers":    rankedEntries(summary.TopReviewers),
		"repositories":     repositoryRows(metrics.Repositories),
		"charts":           charts,
	}

	rendered, err := raymond.Render(reportTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render HTML template: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// rankedEntries adds 1-based ranks so the template needs no helpers.
func rankedEntries(entries []schema.NameCount) []map[string]any {
	rows := make([]map[string]any, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, map[string]any{
			"rank":  i + 1,
			"name":  entry.Name,
			"count": entry.Count,
		})
	}
	return rows
}

func repositoryRows(records []schema.RepositoryRecord) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]any{
			"name":           rec.Name,
			"url":            rec.URL,
			"description":    rec.Description,
			"language":       rec.Language,
			"stars":          rec.Stars,
			"commits":        rec.Commits.Total,
			"prs":            rec.PullRequests.Total,
			"merged":         rec.PullRequests.Merged,
			"issues":         rec.Issues.Total,
			"releases":       rec.Releases.Total,
			"avg_merge_time": fmt.Sprintf("%.1f", rec.PullRequests.AvgMergeTimeHours),
			"avg_pr_size":    fmt.Sprintf("%.0f", rec.PullRequests.AvgSizeLines),
		})
	}
	return rows
}

// chartView is one Plotly chart for the template: a container ID and the
// figure spec as a JSON literal.
type chartView struct {
	ID   string
	Spec string
}

func buildCharts(metrics *schema.AggregateMetrics) ([]map[string]any, error) {
	summary := metrics.Summary
	var charts []chartView

	if len(summary.CommitsByMonth) > 0 {
		months := make([]string, 0, len(summary.CommitsByMonth))
		counts := make([]int, 0, len(summary.CommitsByMonth))
		for _, entry := range summary.CommitsByMonth {
			months = append(months, entry.Month)
			counts = append(counts, entry.Count)
		}
		spec, err := figureSpec("bar", months, counts, "Commits by Month", map[string]any{"color": "rgb(55, 83, 109)"})
		if err != nil {
			return nil, err
		}
		charts = append(charts, chartView{ID: "commits-timeline", Spec: spec})
	}

	if len(summary.TopContributors) > 0 {
		limit := min(5, len(summary.TopContributors))
		names := make([]string, 0, limit)
		counts := make([]int, 0, limit)
		for _, entry := range summary.TopContributors[:limit] {
			names = append(names, entry.Name)
			counts = append(counts, entry.Count)
		}
		spec, err := pieSpec(names, counts, "Top 5 Contributors")
		if err != nil {
			return nil, err
		}
		charts = append(charts, chartView{ID: "top-contributors", Spec: spec})
	}

	if len(summary.Languages) > 0 {
		ranked := rankedLanguages(summary.Languages)
		names := make([]string, 0, len(ranked))
		counts := make([]int, 0, len(ranked))
		for _, entry := range ranked {
			names = append(names, entry.Name)
			counts = append(counts, entry.Count)
		}
		spec, err := pieSpec(names, counts, "Languages")
		if err != nil {
			return nil, err
		}
		charts = append(charts, chartView{ID: "languages", Spec: spec})
	}

	if len(metrics.Repositories) > 0 {
		names := make([]string, 0, len(metrics.Repositories))
		counts := make([]int, 0, len(metrics.Repositories))
		for _, rec := range metrics.Repositories {
			names = append(names, rec.Name)
			counts = append(counts, rec.PullRequests.Total)
		}
		spec, err := figureSpec("bar", names, counts, "Pull Requests by Repository", map[string]any{"color": "rgb(26, 118, 255)"})
		if err != nil {
			return nil, err
		}
		charts = append(charts, chartView{ID: "prs-by-repo", Spec: spec})
	}

	rows := make([]map[string]any, 0, len(charts))
	for _, chart := range charts {
		rows = append(rows, map[string]any{"id": chart.ID, "spec": raymond.SafeString(chart.Spec)})
	}
	return rows, nil
}

func figureSpec(kind string, x []string, y []int, title string, marker map[string]any) (string, error) {
	figure := map[string]any{
		"data": []map[string]any{
			{"type": kind, "x": x, "y": y, "marker": marker},
		},
		"layout": map[string]any{"title": title, "height": 400},
	}
	raw, err := json.Marshal(figure)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chart spec: %w", err)
	}
	return string(raw), nil
}

func pieSpec(labels []string, values []int, title string) (string, error) {
	figure := map[string]any{
		"data": []map[string]any{
			{"type": "pie", "labels": labels, "values": values},
		},
		"layout": map[string]any{"title": title, "height": 400},
	}
	raw, err := json.Marshal(figure)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chart spec: %w", err)
	}
	return string(raw), nil
}
