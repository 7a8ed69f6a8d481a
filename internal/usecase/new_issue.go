package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/runoshun/issuetree/internal/domain"
)

// NewIssueInput contains the parameters for starting a new root issue.
type NewIssueInput struct {
	Title  string
	Body   string
	Name   string // Draft file name; derived from Title when empty
	Labels []string
	Repo   domain.RepoRef
}

// NewIssueOutput contains the draft file path.
type NewIssueOutput struct {
	Path string
}

// NewIssue writes a draft file holding a Pending root issue.
// The draft becomes a remote issue on the next push.
type NewIssue struct {
	files domain.IssueFileStore
}

// NewNewIssue creates a new NewIssue use case.
func NewNewIssue(files domain.IssueFileStore) *NewIssue {
	return &NewIssue{files: files}
}

// Execute writes the draft. An existing draft is never overwritten.
func (uc *NewIssue) Execute(_ context.Context, in NewIssueInput) (*NewIssueOutput, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	if in.Repo.IsZero() {
		return nil, fmt.Errorf("new issue needs a repository: %w", domain.ErrInvalidLink)
	}

	name := in.Name
	if name == "" {
		name = draftName(title)
	}
	path := uc.files.DraftPath(in.Repo, name)
	if _, err := uc.files.Read(path); err == nil {
		return nil, fmt.Errorf("draft %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read draft: %w", err)
	}

	issue := domain.NewIssue(domain.IssueMeta{
		Title:    title,
		Identity: domain.PendingIssue(),
		Owned:    true,
	}, in.Body)
	issue.SetLabels(in.Labels)

	if err := uc.files.Write(path, domain.SerializeIssue(&issue)); err != nil {
		return nil, fmt.Errorf("write draft: %w", err)
	}
	return &NewIssueOutput{Path: path}, nil
}

// draftName turns a title into a file-name slug.
func draftName(title string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
		if sb.Len() >= 40 {
			break
		}
	}
	name := strings.TrimSuffix(sb.String(), "-")
	if name == "" {
		return "draft"
	}
	return name
}
