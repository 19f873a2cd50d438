package outwriter

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// maxConsoleNameWidth caps repository names in the console table so narrow
// terminals keep one row per repository.
func maxConsoleNameWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80 // Conservative default for narrow terminals and CI
	}
	// Reserve space for the numeric columns plus borders and padding
	available := width - 50
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}

// PrintSummary writes the per-repository overview table and the run totals
// to w.
func PrintSummary(w io.Writer, metrics *schema.AggregateMetrics, cfg *contract.Config) error {
	heading := fmt.Sprintf("Retrospective for %s (%s to %s)", metrics.Organization, metrics.Period.Start, metrics.Period.End)
	if cfg.UseColors {
		heading = color.New(color.Bold).Sprint(heading)
	}
	fmt.Fprintln(w, heading)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Repository", "Commits", "PRs", "Issues", "Releases"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := maxConsoleNameWidth()
	var data [][]string
	for _, rec := range metrics.Repositories {
		data = append(data, []string{
			truncateName(rec.Name, nameWidth),
			strconv.Itoa(rec.Commits.Total),
			strconv.Itoa(rec.PullRequests.Total),
			strconv.Itoa(rec.Issues.Total),
			strconv.Itoa(rec.Releases.Total),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	summary := metrics.Summary
	fmt.Fprintf(w, "Totals: %d commits, %d PRs, %d issues, %d releases across %d repositories\n",
		summary.TotalCommits, summary.TotalPRs, summary.TotalIssues, summary.TotalReleases, summary.TotalRepositories)
	if summary.TotalPRs > 0 {
		fmt.Fprintf(w, "Approval rate: %.1f%%, %.2f reviews per PR\n", summary.ApprovalRatePct, summary.AvgReviewsPerPR)
	}
	return nil
}

// truncateName shortens long repository names with a leading ellipsis.
func truncateName(name string, width int) string {
	if len(name) <= width {
		return name
	}
	if width <= 3 {
		return name[:width]
	}
	return "..." + name[len(name)-(width-3):]
}
