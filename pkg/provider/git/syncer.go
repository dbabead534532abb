// Package git brings a local mirror of a remote repository to the exact state of a remote branch. Sync
// prefers reset-to-latest over any form of merge: local divergence, including untracked files left behind
// by earlier runs, is discarded so two syncs against the same remote ref always yield the same tree.
package git

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/provider"
)

type Config struct {
	URL    string
	Branch string
	Dir    string

	// Depth of history to fetch; 0 means full history.
	Depth int

	Retry provider.RetryPolicy
}

func DefaultConfig(repoURL, branch, dir string) Config {
	return Config{
		URL:    repoURL,
		Branch: branch,
		Dir:    dir,
		Depth:  1,
		Retry:  provider.DefaultRetryPolicy(),
	}
}

// Sync clones the remote branch into cfg.Dir, or forces an existing working copy to the exact state of
// the remote ref. Transient failures are retried under the configured policy.
func Sync(ctx context.Context, cfg Config) error {
	if err := checkConnectivity(ctx, cfg.URL); err != nil {
		return err
	}

	return cfg.Retry.Do(ctx, "git sync", func() error {
		if _, err := os.Stat(filepath.Join(cfg.Dir, ".git")); err == nil {
			return resetToRemote(ctx, cfg)
		}
		return clone(ctx, cfg)
	})
}

func clone(ctx context.Context, cfg Config) error {
	log.WithFields("url", cfg.URL, "branch", cfg.Branch, "to", cfg.Dir).Info("local repository not found, performing initial clone")

	_, err := git.PlainCloneContext(ctx, cfg.Dir, false, &git.CloneOptions{
		URL:           cfg.URL,
		ReferenceName: plumbing.NewBranchReferenceName(cfg.Branch),
		SingleBranch:  true,
		Depth:         cfg.Depth,
		Tags:          git.NoTags,
	})
	if err != nil {
		return fmt.Errorf("unable to clone %q: %w", cfg.URL, err)
	}
	return nil
}

func resetToRemote(ctx context.Context, cfg Config) error {
	log.WithFields("url", cfg.URL, "branch", cfg.Branch, "dir", cfg.Dir).Info("local repository exists, syncing with origin")

	repo, err := git.PlainOpen(cfg.Dir)
	if err != nil {
		return fmt.Errorf("unable to open local repository %q: %w", cfg.Dir, err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", cfg.Branch, cfg.Branch))
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Depth:      cfg.Depth,
		Force:      true,
		Tags:       git.NoTags,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("unable to fetch origin/%s: %w", cfg.Branch, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision("refs/remotes/origin/" + cfg.Branch))
	if err != nil {
		return fmt.Errorf("unable to resolve origin/%s: %w", cfg.Branch, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("unable to get worktree: %w", err)
	}

	if err := wt.Reset(&git.ResetOptions{Commit: *hash, Mode: git.HardReset}); err != nil {
		return fmt.Errorf("unable to reset to %s: %w", hash, err)
	}

	// discard untracked files and directories so the tree matches the remote ref exactly
	if err := wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return fmt.Errorf("unable to clean worktree: %w", err)
	}

	log.WithFields("commit", hash.String()).Debug("worktree reset to remote ref")

	return nil
}

// checkConnectivity probes the host of an http(s) remote before attempting a sync, so an unreachable
// authority fails fast with a clear error. Non-http remotes (such as local paths) are not probed.
func checkConnectivity(ctx context.Context, rawURL string) error {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return provider.Permanent(fmt.Errorf("bad repository URL %q: %w", rawURL, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.Scheme+"://"+u.Host, nil)
	if err != nil {
		return err
	}

	resp, err := cleanhttp.DefaultClient().Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	return nil
}
