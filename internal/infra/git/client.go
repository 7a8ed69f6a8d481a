// Package git locates the workspace repository and reads its remotes.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/runoshun/issuetree/internal/domain"
)

// Client provides read-only access to the enclosing git repository.
type Client struct {
	repo     *gogit.Repository
	repoRoot string // Worktree root (parent of .git)
}

// NewClient opens the repository containing dir, searching parent directories.
// Returns ErrNotGitRepository if there is none.
func NewClient(dir string) (*Client, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, domain.ErrNotGitRepository
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return nil, fmt.Errorf("resolve repository root: %w", err)
	}
	return &Client{repo: repo, repoRoot: root}, nil
}

// RepoRoot returns the repository root directory.
func (c *Client) RepoRoot() string {
	return c.repoRoot
}

// OriginRepo returns the GitHub repository the "origin" remote points at.
func (c *Client) OriginRepo() (domain.RepoRef, error) {
	remote, err := c.repo.Remote("origin")
	if err != nil {
		return domain.RepoRef{}, fmt.Errorf("read origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return domain.RepoRef{}, errors.New("origin remote has no URL")
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts owner and repository from a remote URL.
// It accepts scp-like ("git@host:owner/repo.git"), ssh:// and http(s):// forms.
func ParseRemoteURL(raw string) (domain.RepoRef, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.Contains(s, "://"):
		s = s[strings.Index(s, "://")+3:]
		slash := strings.Index(s, "/")
		if slash < 0 {
			return domain.RepoRef{}, fmt.Errorf("no repository path in remote URL %q", raw)
		}
		s = s[slash+1:]
	case strings.Contains(s, ":"):
		s = s[strings.Index(s, ":")+1:]
	default:
		return domain.RepoRef{}, fmt.Errorf("unsupported remote URL %q", raw)
	}

	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	ref, err := domain.ParseRepoRef(s)
	if err != nil {
		return domain.RepoRef{}, fmt.Errorf("remote URL %q: %w", raw, err)
	}
	return ref, nil
}
