package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/runoshun/issuetree/internal/app"
	"github.com/runoshun/issuetree/internal/domain"
)

// resolveLink parses an issue argument: a URL, "owner/repo#N", or a bare
// number ("42" or "#42") in the default repository.
func resolveLink(c *app.Container, arg string) (domain.IssueLink, error) {
	s := strings.TrimPrefix(strings.TrimSpace(arg), "#")
	n, err := strconv.Atoi(s)
	if err != nil {
		return domain.ParseIssueLink(arg)
	}
	if n <= 0 {
		return domain.IssueLink{}, fmt.Errorf("%w: %q", domain.ErrInvalidLink, arg)
	}
	repo, err := c.DefaultRepo()
	if err != nil {
		return domain.IssueLink{}, err
	}
	return domain.IssueLink{Owner: repo.Owner, Repo: repo.Name, Number: n}, nil
}

// resolveRepo returns the repository named by flag, or the default one.
func resolveRepo(c *app.Container, flag string) (domain.RepoRef, error) {
	if flag != "" {
		return domain.ParseRepoRef(flag)
	}
	return c.DefaultRepo()
}
