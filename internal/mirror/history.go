package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CollectCommits implements the MirrorProvider interface. It walks commit
// history reachable from all refs, bounded by the window on author date,
// producing the same breakdown as the API path. Any error here tells the
// caller to fall back to the API path for this repository.
func (p *Provider) CollectCommits(ctx context.Context, path string, start, end time.Time) (schema.CommitStats, error) {
	stats := schema.NewCommitStats()

	repository, err := git.PlainOpen(path)
	if err != nil {
		return stats, fmt.Errorf("failed to open mirror at %s: %w", path, err)
	}

	iter, err := repository.Log(&git.LogOptions{All: true})
	if err != nil {
		return stats, fmt.Errorf("failed to read history at %s: %w", path, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		when := c.Author.When
		if !contract.InWindow(when, start, end) {
			return nil
		}

		author := c.Author.Name
		if author == "" {
			author = c.Author.Email
		}

		stats.Total++
		schema.Incr(stats.ByAuthor, author, 1)
		schema.Incr(stats.ByMonth, contract.MonthKey(when), 1)
		schema.Incr(stats.ByWeekday, contract.WeekdayName(when), 1)

		// Per-commit diff stats are best effort, like the API path.
		if fileStats, err := c.Stats(); err == nil {
			for _, fs := range fileStats {
				schema.Incr(stats.Additions, author, fs.Addition)
				schema.Incr(stats.Deletions, author, fs.Deletion)
			}
			schema.Incr(stats.FilesChanged, author, len(fileStats))
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("history walk failed at %s: %w", path, err)
	}
	return stats, nil
}
