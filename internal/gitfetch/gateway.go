// Package gitfetch wraps the GitHub API behind the contract.HostGateway
// interface, handling pagination and rate-limit backoff so the collector
// never sees either.
package gitfetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
	"github.com/google/go-github/v62/github"
)

const (
	// quotaFloor is the remaining-request threshold under which the
	// gateway blocks until the quota resets.
	quotaFloor = 100

	// resetBuffer pads the documented reset time to absorb clock skew.
	resetBuffer = 10 * time.Second

	pageSize = 100
)

// Gateway implements contract.HostGateway against the GitHub REST API.
type Gateway struct {
	client *github.Client
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ contract.HostGateway = &Gateway{} // Compile-time check

// NewGateway builds a gateway authenticated with the given token.
func NewGateway(token string) *Gateway {
	return &Gateway{
		client: github.NewClient(nil).WithAuthToken(token),
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// guardQuota blocks until the quota resets when the remaining budget from
// the last response has fallen under the floor. It blocks only the calling
// worker; other workers proceed unless they hit the gateway too.
func (g *Gateway) guardQuota(ctx context.Context, resp *github.Response) error {
	if resp == nil || resp.Rate.Remaining >= quotaFloor {
		return nil
	}
	wait := time.Until(resp.Rate.Reset.Time) + resetBuffer
	if wait <= 0 {
		return nil
	}
	contract.LogWarn(fmt.Sprintf("low rate limit (%d remaining), waiting %s", resp.Rate.Remaining, wait.Round(time.Second)), nil)
	return g.sleep(ctx, wait)
}

// handleRateReject waits out a hard rate-limit rejection and reports
// whether the caller should restart its iteration from the top. Restarting
// can recount early items; overcounting beats aborting the category.
func (g *Gateway) handleRateReject(ctx context.Context, err error) (bool, error) {
	var limitErr *github.RateLimitError
	if errors.As(err, &limitErr) {
		wait := time.Until(limitErr.Rate.Reset.Time) + resetBuffer
		contract.LogWarn(fmt.Sprintf("rate limit exceeded, waiting %s before restart", wait.Round(time.Second)), nil)
		if serr := g.sleep(ctx, wait); serr != nil {
			return false, serr
		}
		return true, nil
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		wait := resetBuffer
		if abuseErr.RetryAfter != nil {
			wait = *abuseErr.RetryAfter + resetBuffer
		}
		contract.LogWarn(fmt.Sprintf("secondary rate limit hit, waiting %s before restart", wait.Round(time.Second)), nil)
		if serr := g.sleep(ctx, wait); serr != nil {
			return false, serr
		}
		return true, nil
	}
	return false, err
}

// paginate drives fetchPage from page 1 until no next page remains,
// guarding the quota between pages. On a hard rate-limit rejection it
// waits out the reset and restarts from page 1, telling the caller to
// discard items accumulated so far via the reset callback.
func (g *Gateway) paginate(ctx context.Context, reset func(), fetchPage func(page int) (*github.Response, error)) error {
	for {
		page := 1
		var restart bool
		for {
			resp, err := fetchPage(page)
			if err != nil {
				var rerr error
				restart, rerr = g.handleRateReject(ctx, err)
				if rerr != nil {
					return rerr
				}
				break
			}
			if err := g.guardQuota(ctx, resp); err != nil {
				return err
			}
			if resp.NextPage == 0 {
				return nil
			}
			page = resp.NextPage
		}
		if !restart {
			return nil
		}
		reset()
	}
}

// ListRepositories implements the HostGateway interface.
func (g *Gateway) ListRepositories(ctx context.Context, org string, opts contract.ListOptions) ([]schema.Repository, error) {
	var repos []schema.Repository
	err := g.paginate(ctx,
		func() { repos = repos[:0] },
		func(page int) (*github.Response, error) {
			listed, resp, err := g.client.Repositories.ListByOrg(ctx, org, &github.RepositoryListByOrgOptions{
				ListOptions: github.ListOptions{Page: page, PerPage: pageSize},
			})
			if err != nil {
				return resp, err
			}
			for _, r := range listed {
				if r.GetArchived() && !opts.IncludeArchived {
					continue
				}
				if r.GetFork() && !opts.IncludeForks {
					continue
				}
				repos = append(repos, mapRepository(r))
			}
			return resp, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories for %s: %w", org, err)
	}
	return repos, nil
}

// GetRepository implements the HostGateway interface.
func (g *Gateway) GetRepository(ctx context.Context, org, name string) (schema.Repository, error) {
	r, resp, err := g.client.Repositories.Get(ctx, org, name)
	if err != nil {
		return schema.Repository{}, fmt.Errorf("repository %s/%s not found: %w", org, name, err)
	}
	if err := g.guardQuota(ctx, resp); err != nil {
		return schema.Repository{}, err
	}
	return mapRepository(r), nil
}

// FetchCommits implements the HostGateway interface. Line-level stats need
// a detail request per commit; a failed detail fetch leaves zeros for that
// commit rather than dropping it.
func (g *Gateway) FetchCommits(ctx context.Context, org, name string, since, until time.Time) ([]schema.Commit, error) {
	var commits []schema.Commit
	err := g.paginate(ctx,
		func() { commits = commits[:0] },
		func(page int) (*github.Response, error) {
			listed, resp, err := g.client.Repositories.ListCommits(ctx, org, name, &github.CommitsListOptions{
				Since:       since,
				Until:       until,
				ListOptions: github.ListOptions{Page: page, PerPage: pageSize},
			})
			if err != nil {
				return resp, err
			}
			for _, rc := range listed {
				commits = append(commits, g.commitWithStats(ctx, org, name, rc))
			}
			return resp, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commits for %s/%s: %w", org, name, err)
	}
	return commits, nil
}

func (g *Gateway) commitWithStats(ctx context.Context, org, name string, rc *github.RepositoryCommit) schema.Commit {
	c := schema.Commit{}
	if author := rc.GetCommit().GetAuthor(); author != nil {
		c.AuthorName = author.GetName()
		c.AuthorEmail = author.GetEmail()
		c.AuthoredAt = author.GetDate().Time
	}

	detail, _, err := g.client.Repositories.GetCommit(ctx, org, name, rc.GetSHA(), nil)
	if err != nil {
		return c
	}
	if stats := detail.GetStats(); stats != nil {
		c.Additions = stats.GetAdditions()
		c.Deletions = stats.GetDeletions()
	}
	c.FilesChanged = len(detail.Files)
	return c
}

// FetchPullRequests implements the HostGateway interface. Sizes and the
// merged flag come from a per-PR detail request; reviews and comments are
// best-effort sub-fetches, matching the degradation policy of the rest of
// the pipeline.
func (g *Gateway) FetchPullRequests(ctx context.Context, org, name string) ([]schema.PullRequest, error) {
	var prs []schema.PullRequest
	err := g.paginate(ctx,
		func() { prs = prs[:0] },
		func(page int) (*github.Response, error) {
			listed, resp, err := g.client.PullRequests.List(ctx, org, name, &github.PullRequestListOptions{
				State:       "all",
				Sort:        "created",
				Direction:   "desc",
				ListOptions: github.ListOptions{Page: page, PerPage: pageSize},
			})
			if err != nil {
				return resp, err
			}
			for _, listedPR := range listed {
				prs = append(prs, g.pullRequestDetail(ctx, org, name, listedPR))
			}
			return resp, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull requests for %s/%s: %w", org, name, err)
	}
	return prs, nil
}

func (g *Gateway) pullRequestDetail(ctx context.Context, org, name string, listed *github.PullRequest) schema.PullRequest {
	pr := schema.PullRequest{
		Author:    loginOrUnknown(listed.GetUser()),
		CreatedAt: listed.GetCreatedAt().Time,
		State:     listed.GetState(),
		Merged:    listed.MergedAt != nil,
	}
	if listed.MergedAt != nil {
		pr.MergedAt = listed.GetMergedAt().Time
	}

	number := listed.GetNumber()
	if detail, _, err := g.client.PullRequests.Get(ctx, org, name, number); err == nil {
		pr.Merged = detail.GetMerged()
		pr.Additions = detail.GetAdditions()
		pr.Deletions = detail.GetDeletions()
	}

	if reviews, _, err := g.client.PullRequests.ListReviews(ctx, org, name, number, &github.ListOptions{PerPage: pageSize}); err == nil {
		for _, review := range reviews {
			pr.Reviewers = append(pr.Reviewers, loginOrUnknown(review.GetUser()))
		}
	}

	if comments, _, err := g.client.PullRequests.ListComments(ctx, org, name, number, &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: pageSize},
	}); err == nil {
		for _, comment := range comments {
			pr.Commenters = append(pr.Commenters, loginOrUnknown(comment.GetUser()))
		}
	}
	return pr
}

// FetchIssues implements the HostGateway interface.
func (g *Gateway) FetchIssues(ctx context.Context, org, name string, since time.Time) ([]schema.Issue, error) {
	var issues []schema.Issue
	err := g.paginate(ctx,
		func() { issues = issues[:0] },
		func(page int) (*github.Response, error) {
			listed, resp, err := g.client.Issues.ListByRepo(ctx, org, name, &github.IssueListByRepoOptions{
				State:       "all",
				Since:       since,
				ListOptions: github.ListOptions{Page: page, PerPage: pageSize},
			})
			if err != nil {
				return resp, err
			}
			for _, issue := range listed {
				mapped := schema.Issue{
					Author:        loginOrUnknown(issue.GetUser()),
					CreatedAt:     issue.GetCreatedAt().Time,
					State:         issue.GetState(),
					IsPullRequest: issue.IsPullRequest(),
				}
				if issue.ClosedAt != nil {
					mapped.ClosedAt = issue.GetClosedAt().Time
				}
				issues = append(issues, mapped)
			}
			return resp, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues for %s/%s: %w", org, name, err)
	}
	return issues, nil
}

// FetchReleases implements the HostGateway interface.
func (g *Gateway) FetchReleases(ctx context.Context, org, name string) ([]schema.Release, error) {
	var releases []schema.Release
	err := g.paginate(ctx,
		func() { releases = releases[:0] },
		func(page int) (*github.Response, error) {
			listed, resp, err := g.client.Repositories.ListReleases(ctx, org, name, &github.ListOptions{
				Page: page, PerPage: pageSize,
			})
			if err != nil {
				return resp, err
			}
			for _, release := range listed {
				title := release.GetName()
				if title == "" {
					title = release.GetTagName()
				}
				releases = append(releases, schema.Release{
					Title:     title,
					Tag:       release.GetTagName(),
					CreatedAt: release.GetCreatedAt().Time,
					Author:    loginOrUnknown(release.GetAuthor()),
				})
			}
			return resp, nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch releases for %s/%s: %w", org, name, err)
	}
	return releases, nil
}

func loginOrUnknown(u *github.User) string {
	if u == nil || u.GetLogin() == "" {
		return "unknown"
	}
	return u.GetLogin()
}

func mapRepository(r *github.Repository) schema.Repository {
	return schema.Repository{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		URL:         r.GetHTMLURL(),
		Description: r.GetDescription(),
		Language:    r.GetLanguage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Archived:    r.GetArchived(),
		Fork:        r.GetFork(),
	}
}
