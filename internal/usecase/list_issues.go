package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/runoshun/issuetree/internal/domain"
)

// IssueStatus summarizes one synced issue tree.
// Fields are ordered to minimize memory padding.
type IssueStatus struct {
	SavedAt  time.Time
	Err      error // Set when the local file could not be planned
	Title    string
	Path     string
	Link     domain.IssueLink
	Issues   int // Nodes in the snapshot tree
	Pending  int // Actions the next push would issue
	HasLocal bool
}

// ListIssuesOutput contains the status of every synced tree.
type ListIssuesOutput struct {
	Issues []IssueStatus
}

// ListIssues reports local state for every stored snapshot without
// contacting the tracker.
type ListIssues struct {
	snapshots domain.SnapshotStore
	files     domain.IssueFileStore
}

// NewListIssues creates a new ListIssues use case.
func NewListIssues(snapshots domain.SnapshotStore, files domain.IssueFileStore) *ListIssues {
	return &ListIssues{snapshots: snapshots, files: files}
}

// Execute lists the snapshots and plans each local file against its snapshot.
func (uc *ListIssues) Execute(_ context.Context) (*ListIssuesOutput, error) {
	snaps, err := uc.snapshots.List()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := &ListIssuesOutput{Issues: make([]IssueStatus, 0, len(snaps))}
	for _, snap := range snaps {
		out.Issues = append(out.Issues, uc.status(snap))
	}
	return out, nil
}

func (uc *ListIssues) status(snap *domain.Snapshot) IssueStatus {
	st := IssueStatus{
		Link:    snap.Link,
		SavedAt: snap.SavedAt,
		Path:    uc.files.Path(snap.Link),
	}
	base, err := snap.Issue()
	if err != nil {
		st.Err = err
		return st
	}
	st.Title = base.Meta.Title
	st.Issues = len(base.Flatten())

	content, err := uc.files.Read(st.Path)
	if errors.Is(err, os.ErrNotExist) {
		return st
	}
	if err != nil {
		st.Err = err
		return st
	}
	st.HasLocal = true

	edited, err := domain.LoadLocal(content)
	if err != nil {
		st.Err = err
		return st
	}
	plan, err := domain.Reconcile(&edited, &base, domain.ReconcileOptions{})
	if err != nil {
		st.Err = err
		return st
	}
	st.Pending = len(plan.Actions)
	return st
}
