package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/runoshun/issuetree/internal/domain"
)

// OpenIssueInput contains the parameters for an edit cycle.
type OpenIssueInput struct {
	CurrentUser string           // Login; resolved via the client when empty
	Link        domain.IssueLink // Root issue (required)
	Offline     bool             // Edit the cached copy without talking to the tracker
}

// OpenIssueOutput contains the result of an edit cycle.
type OpenIssueOutput struct {
	Sync     *SyncIssueOutput // nil when offline
	Path     string
	Warnings []string
	Resumed  bool // Local file had unpushed edits and was kept as is
}

// OpenIssue runs pull, edit and push as one cycle.
type OpenIssue struct {
	pull      *PullIssue
	sync      *SyncIssue
	snapshots domain.SnapshotStore
	files     domain.IssueFileStore
	editor    domain.Editor
	logger    domain.Logger
}

// NewOpenIssue creates a new OpenIssue use case.
func NewOpenIssue(
	pull *PullIssue,
	sync *SyncIssue,
	snapshots domain.SnapshotStore,
	files domain.IssueFileStore,
	editor domain.Editor,
	logger domain.Logger,
) *OpenIssue {
	return &OpenIssue{
		pull:      pull,
		sync:      sync,
		snapshots: snapshots,
		files:     files,
		editor:    editor,
		logger:    logger,
	}
}

// Execute refreshes the local file, opens it in the editor and pushes the
// result. A local file with unpushed edits is reopened instead of being
// overwritten, so an interrupted cycle can be resumed.
func (uc *OpenIssue) Execute(ctx context.Context, in OpenIssueInput) (*OpenIssueOutput, error) {
	key := in.Link.String()
	out := &OpenIssueOutput{Path: uc.files.Path(in.Link)}

	if in.Offline {
		if err := uc.ensureLocal(out.Path, in.Link); err != nil {
			return nil, err
		}
	} else {
		pulled, err := uc.pull.Execute(ctx, PullIssueInput{Link: in.Link, CurrentUser: in.CurrentUser})
		switch {
		case errors.Is(err, domain.ErrLocalChanges):
			uc.logger.Info(key, "open", "resuming unpushed local edits")
			out.Resumed = true
		case err != nil:
			return nil, err
		default:
			out.Warnings = pulled.Warnings
		}
	}

	if err := uc.editor.Edit(ctx, out.Path); err != nil {
		return nil, fmt.Errorf("edit %s: %w", out.Path, err)
	}
	if in.Offline {
		return out, nil
	}

	synced, err := uc.sync.Execute(ctx, SyncIssueInput{
		File:        out.Path,
		Link:        in.Link,
		CurrentUser: in.CurrentUser,
	})
	out.Sync = synced
	if err != nil {
		return out, err
	}
	return out, nil
}

// ensureLocal restores the local file from the snapshot when it is missing.
func (uc *OpenIssue) ensureLocal(path string, link domain.IssueLink) error {
	_, err := uc.files.Read(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read issue file: %w", err)
	}
	snap, err := uc.snapshots.Load(link)
	if err != nil {
		return fmt.Errorf("load snapshot of %s: %w", link, err)
	}
	return uc.files.Write(path, snap.Content)
}
