package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/runoshun/issuetree/internal/domain"
)

// PullIssueInput contains the parameters for pulling an issue tree.
type PullIssueInput struct {
	CurrentUser string           // Login for ownership; resolved via the client when empty
	Link        domain.IssueLink // Root issue (required)
	Force       bool             // Overwrite unpushed local edits
}

// PullIssueOutput contains the result of a pull.
type PullIssueOutput struct {
	Path     string // Local file path
	Warnings []string
	Issue    domain.Issue
}

// PullIssue ingests a remote tree, stores it as the snapshot and writes the local file.
type PullIssue struct {
	ingest    *IngestIssue
	snapshots domain.SnapshotStore
	files     domain.IssueFileStore
	clock     domain.Clock
}

// NewPullIssue creates a new PullIssue use case.
func NewPullIssue(ingest *IngestIssue, snapshots domain.SnapshotStore, files domain.IssueFileStore, clock domain.Clock) *PullIssue {
	return &PullIssue{
		ingest:    ingest,
		snapshots: snapshots,
		files:     files,
		clock:     clock,
	}
}

// Execute pulls the tree. Unless Force is set, a local file that differs
// from the last snapshot is left untouched and ErrLocalChanges is returned.
func (uc *PullIssue) Execute(ctx context.Context, in PullIssueInput) (*PullIssueOutput, error) {
	path := uc.files.Path(in.Link)
	if !in.Force {
		dirty, err := localChanged(uc.files, uc.snapshots, path, in.Link)
		if err != nil {
			return nil, err
		}
		if dirty {
			return nil, domain.ErrLocalChanges
		}
	}

	out, err := uc.ingest.Execute(ctx, IngestIssueInput{Link: in.Link, CurrentUser: in.CurrentUser})
	if err != nil {
		return nil, err
	}

	snap, err := domain.NewSnapshot(&out.Issue, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.snapshots.Save(snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	if err := uc.files.Write(path, snap.Content); err != nil {
		return nil, fmt.Errorf("write issue file: %w", err)
	}

	return &PullIssueOutput{Path: path, Issue: out.Issue, Warnings: out.Warnings}, nil
}

// localChanged reports whether the local file exists and differs from the snapshot.
func localChanged(files domain.IssueFileStore, snapshots domain.SnapshotStore, path string, link domain.IssueLink) (bool, error) {
	local, err := files.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read issue file: %w", err)
	}

	snap, err := snapshots.Load(link)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	return local != snap.Content, nil
}
