// Package mirror maintains local working copies of remote repositories and
// reads commit history from them, bypassing the remote API.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/schema"
	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
)

// Provider implements contract.MirrorProvider with go-git.
type Provider struct {
	// urls resolves the remote URL for a repository; tests point it at
	// unreachable or local targets.
	urls func(org, repo, token string) string
}

var _ contract.MirrorProvider = &Provider{} // Compile-time check

// NewProvider returns a mirror provider.
func NewProvider() *Provider {
	return &Provider{urls: cloneURL}
}

// Ensure implements the MirrorProvider interface. An existing working copy
// gets its origin URL refreshed (best effort) and pulled; a missing one is
// cloned fresh. Pull and clone failures degrade to a skipped result so one
// stale mirror never stops the run.
func (p *Provider) Ensure(ctx context.Context, org, repo, pathTemplate, token string) (schema.MirrorResult, error) {
	target := contract.BuildMirrorPath(pathTemplate, repo)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return schema.MirrorResult{}, fmt.Errorf("failed to create mirror parent directory: %w", err)
	}
	url := p.urls(org, repo, token)

	repository, err := git.PlainOpen(target)
	switch {
	case err == nil:
		return pullExisting(repository, repo, target, url), nil
	case errors.Is(err, git.ErrRepositoryNotExists):
		if _, statErr := os.Stat(target); statErr == nil {
			return schema.MirrorResult{}, fmt.Errorf("existing path is not a git repo: %s", target)
		}
	default:
		return schema.MirrorResult{}, fmt.Errorf("failed to open %s: %w", target, err)
	}

	if _, err := git.PlainCloneContext(ctx, target, false, &git.CloneOptions{URL: url}); err != nil {
		contract.LogWarn(fmt.Sprintf("failed to clone %s", repo), err)
		return schema.MirrorResult{
			Repo:   repo,
			Path:   target,
			Status: schema.MirrorSkipped,
			Reason: "clone failed",
		}, nil
	}
	return schema.MirrorResult{Repo: repo, Path: target, Status: schema.MirrorCloned}, nil
}

// pullExisting refreshes the origin URL and pulls latest history. The URL
// update is best effort; only the pull decides updated vs skipped.
func pullExisting(repository *git.Repository, repo, target, url string) schema.MirrorResult {
	if err := repository.DeleteRemote("origin"); err == nil || errors.Is(err, git.ErrRemoteNotFound) {
		_, _ = repository.CreateRemote(&gitconfig.RemoteConfig{
			Name: "origin",
			URLs: []string{url},
		})
	}

	worktree, err := repository.Worktree()
	if err != nil {
		contract.LogWarn(fmt.Sprintf("failed to open worktree for %s", repo), err)
		return schema.MirrorResult{Repo: repo, Path: target, Status: schema.MirrorSkipped, Reason: "pull failed"}
	}
	err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		contract.LogWarn(fmt.Sprintf("failed to pull %s", repo), err)
		return schema.MirrorResult{Repo: repo, Path: target, Status: schema.MirrorSkipped, Reason: "pull failed"}
	}
	return schema.MirrorResult{Repo: repo, Path: target, Status: schema.MirrorUpdated}
}

func cloneURL(org, repo, token string) string {
	if token != "" {
		return fmt.Sprintf("https://%s@github.com/%s/%s.git", token, org, repo)
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", org, repo)
}
