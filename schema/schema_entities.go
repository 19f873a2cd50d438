package schema

import "time"

// The entity records below form the boundary between the data sources
// (remote API or local mirror) and the collector. The collector never
// touches a client library's own object model.

// Repository is one listed repository from the upstream host.
type Repository struct {
	Name        string
	FullName    string
	URL         string
	Description string
	Language    string
	Stars       int
	Forks       int
	Archived    bool
	Fork        bool
}

// Commit is one commit with its line-level stats. Additions, Deletions and
// FilesChanged are zero when the detail fetch for the commit failed.
type Commit struct {
	AuthorName   string
	AuthorEmail  string
	AuthoredAt   time.Time
	Additions    int
	Deletions    int
	FilesChanged int
}

// Author returns the commit author's name, falling back to the email when
// the name is unset.
func (c Commit) Author() string {
	if c.AuthorName != "" {
		return c.AuthorName
	}
	return c.AuthorEmail
}

// PullRequest is one pull request with review and comment attribution.
type PullRequest struct {
	Author     string
	CreatedAt  time.Time
	MergedAt   time.Time
	State      string
	Merged     bool
	Additions  int
	Deletions  int
	Reviewers  []string
	Commenters []string
}

// Issue is one issue. IsPullRequest marks entities the upstream host
// reports through the issue listing even though they are pull requests.
type Issue struct {
	Author        string
	CreatedAt     time.Time
	ClosedAt      time.Time
	State         string
	IsPullRequest bool
}

// Release is one published release.
type Release struct {
	Title     string
	Tag       string
	CreatedAt time.Time
	Author    string
}
