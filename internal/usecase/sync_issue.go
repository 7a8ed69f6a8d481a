package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/issuetree/internal/domain"
)

// SyncIssueInput contains the parameters for pushing a local issue file.
// Fields are ordered to minimize memory padding.
type SyncIssueInput struct {
	File        string           // Local file; defaults to the file of Link
	CurrentUser string           // Login; resolved via the client when empty
	Repo        domain.RepoRef   // Repository for a new root issue
	Link        domain.IssueLink // Expected root; zero to accept whatever the file says
	DryRun      bool             // Plan only
	Force       bool             // Skip the stale-base check
}

// SyncIssueOutput contains the result of a sync.
type SyncIssueOutput struct {
	Plan     *domain.Plan
	Result   *domain.PushResult // nil on dry run or when nothing changed
	Path     string             // Local file after the sync
	Previews []ActionPreview
	Link     domain.IssueLink // Root issue; zero if a new root could not be created
}

// SyncIssue pushes a local file and refreshes the snapshot afterwards.
type SyncIssue struct {
	ingest    *IngestIssue
	push      *PushIssue
	snapshots domain.SnapshotStore
	files     domain.IssueFileStore
	clock     domain.Clock
	logger    domain.Logger
}

// NewSyncIssue creates a new SyncIssue use case.
func NewSyncIssue(
	ingest *IngestIssue,
	push *PushIssue,
	snapshots domain.SnapshotStore,
	files domain.IssueFileStore,
	clock domain.Clock,
	logger domain.Logger,
) *SyncIssue {
	return &SyncIssue{
		ingest:    ingest,
		push:      push,
		snapshots: snapshots,
		files:     files,
		clock:     clock,
		logger:    logger,
	}
}

// Execute loads the file, pushes it against the snapshot, then re-ingests
// the remote tree as the next snapshot.
//
// After a partial failure the local file keeps the edited tree with every
// identity that was created, so the next push re-derives only what failed.
// After a full success the file is rewritten from the fresh snapshot.
func (uc *SyncIssue) Execute(ctx context.Context, in SyncIssueInput) (*SyncIssueOutput, error) {
	path := in.File
	if path == "" {
		if in.Link == (domain.IssueLink{}) {
			return nil, fmt.Errorf("no file or issue given: %w", domain.ErrInvalidLink)
		}
		path = uc.files.Path(in.Link)
	}

	content, err := uc.files.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read issue file: %w", err)
	}
	edited, err := domain.LoadLocal(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base, err := uc.loadBase(&edited, in.Link)
	if err != nil {
		return nil, err
	}

	before := edited.Clone()
	pushed, err := uc.push.Execute(ctx, PushIssueInput{
		Edited:      &edited,
		Base:        base,
		CurrentUser: in.CurrentUser,
		Repo:        in.Repo,
		DryRun:      in.DryRun,
		Force:       in.Force,
	})
	if err != nil {
		return nil, err
	}

	out := &SyncIssueOutput{
		Plan:     pushed.Plan,
		Result:   pushed.Result,
		Path:     path,
		Previews: buildPreviews(pushed.Plan, &before, base),
	}
	link, linked := edited.Meta.Identity.Link()
	if linked {
		out.Link = link
	}
	if pushed.Result == nil {
		return out, nil
	}

	if linked {
		out.Path = uc.files.Path(link)
	}
	if err := uc.files.Write(out.Path, domain.SerializeIssue(&edited)); err != nil {
		return out, fmt.Errorf("write issue file: %w", err)
	}
	if out.Path != path {
		if err := uc.files.Remove(path); err != nil {
			uc.logger.Warn(link.String(), "sync", fmt.Sprintf("remove draft %s: %v", path, err))
		}
	}
	if !linked {
		return out, nil
	}

	fresh, err := uc.ingest.Execute(ctx, IngestIssueInput{Link: link, CurrentUser: in.CurrentUser})
	if err != nil {
		return out, fmt.Errorf("refresh snapshot: %w", err)
	}
	snap, err := domain.NewSnapshot(&fresh.Issue, uc.clock.Now())
	if err != nil {
		return out, err
	}
	if err := uc.snapshots.Save(snap); err != nil {
		return out, fmt.Errorf("save snapshot: %w", err)
	}
	if pushed.Result.OK() {
		if err := uc.files.Write(out.Path, snap.Content); err != nil {
			return out, fmt.Errorf("write issue file: %w", err)
		}
	}
	return out, nil
}

// loadBase returns the snapshot tree for a linked root, or nil for a new root.
func (uc *SyncIssue) loadBase(edited *domain.Issue, want domain.IssueLink) (*domain.Issue, error) {
	link, ok := edited.Meta.Identity.Link()
	if !ok {
		return nil, nil
	}
	if want != (domain.IssueLink{}) && want != link {
		return nil, &domain.IdentityMismatchError{
			Link:   link,
			Path:   domain.Path{},
			Reason: fmt.Sprintf("file belongs to %s, not %s", link, want),
		}
	}

	snap, err := uc.snapshots.Load(link)
	if err != nil {
		return nil, fmt.Errorf("load snapshot of %s: %w", link, err)
	}
	base, err := snap.Issue()
	if err != nil {
		return nil, err
	}
	return &base, nil
}
