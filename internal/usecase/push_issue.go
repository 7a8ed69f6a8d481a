package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/runoshun/issuetree/internal/domain"
)

// PushIssueInput contains the parameters for pushing an edited tree.
// Fields are ordered to minimize memory padding.
type PushIssueInput struct {
	Edited      *domain.Issue  // Edited tree; created identities are written back into it
	Base        *domain.Issue  // Last-synced tree; nil when the root is Pending
	CurrentUser string         // Login; resolved via the client when empty
	Repo        domain.RepoRef // Repository for a Pending root
	DryRun      bool           // Plan only
	Force       bool           // Skip the stale-base check
}

// PushIssueOutput contains the plan and what happened to it.
type PushIssueOutput struct {
	Plan   *domain.Plan
	Result *domain.PushResult // nil on dry run
}

// PushIssue reconciles an edited tree against its snapshot and applies the
// resulting actions to the remote tracker.
type PushIssue struct {
	client      domain.IssueClient
	logger      domain.Logger
	sleeper     domain.Sleeper
	sync        domain.SyncConfig
	concurrency int
}

// NewPushIssue creates a new PushIssue use case.
func NewPushIssue(client domain.IssueClient, logger domain.Logger, sleeper domain.Sleeper, cfg domain.SyncConfig) *PushIssue {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &PushIssue{
		client:      client,
		logger:      logger,
		sleeper:     sleeper,
		sync:        cfg,
		concurrency: concurrency,
	}
}

// Execute plans and applies the push.
// A stale snapshot or a vanished linked issue aborts before any action runs.
func (uc *PushIssue) Execute(ctx context.Context, in PushIssueInput) (*PushIssueOutput, error) {
	user := in.CurrentUser
	if user == "" {
		u, err := uc.client.CurrentUser(ctx)
		if err != nil && !in.DryRun {
			return nil, fmt.Errorf("resolve current user: %w", err)
		}
		user = u
	}

	plan, err := domain.Reconcile(in.Edited, in.Base, domain.ReconcileOptions{CurrentUser: user})
	if err != nil {
		return nil, err
	}
	key := in.Edited.Meta.Identity.String()
	for _, w := range plan.Warnings {
		uc.logger.Warn(key, "push", w)
	}
	if in.DryRun || plan.IsEmpty() {
		return &PushIssueOutput{Plan: plan}, nil
	}
	if in.Edited.Meta.Identity.IsPending() && in.Repo.IsZero() {
		return nil, fmt.Errorf("new root issue needs a repository: %w", domain.ErrInvalidLink)
	}

	if !in.Force {
		if err := uc.checkStale(ctx, in.Edited, in.Base, plan); err != nil {
			return nil, err
		}
	}

	run := &pushRun{
		uc:   uc,
		tree: in.Edited,
		base: in.Base,
		repo: in.Repo,
		user: user,
	}
	result := run.apply(ctx, plan)
	uc.logger.Info(key, "push", fmt.Sprintf("applied %d, failed %d, skipped %d",
		len(result.Applied), len(result.Failed), len(result.Skipped)))
	return &PushIssueOutput{Plan: plan, Result: result}, nil
}

// checkStale compares the remote updated_at of every linked node the plan
// touches with the value recorded in the snapshot.
func (uc *PushIssue) checkStale(ctx context.Context, edited, base *domain.Issue, plan *domain.Plan) error {
	if base == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for _, path := range plan.TouchedPaths() {
		node := edited.At(path)
		if node == nil {
			continue
		}
		link, ok := node.Meta.Identity.Link()
		if !ok {
			continue
		}
		recorded := base.Find(node.Meta.Identity)
		g.Go(func() error {
			remote, err := uc.client.FetchIssue(gctx, link)
			if errors.Is(err, domain.ErrRemoteNotFound) {
				return &domain.IdentityMismatchError{Link: link, Path: path, Reason: "issue no longer exists"}
			}
			if err != nil {
				return fmt.Errorf("check %s: %w", link, err)
			}
			if recorded == nil || recorded.LastContentsChange == nil {
				return nil
			}
			if remote.UpdatedAt.After(*recorded.LastContentsChange) {
				return &domain.StaleBaseError{Link: link, Snapshot: *recorded.LastContentsChange, Remote: remote.UpdatedAt}
			}
			return nil
		})
	}
	return g.Wait()
}

// pushRun executes one plan against one tree.
type pushRun struct {
	uc   *PushIssue
	tree *domain.Issue
	base *domain.Issue
	user string
	repo domain.RepoRef
}

func (r *pushRun) apply(ctx context.Context, plan *domain.Plan) *domain.PushResult {
	result := &domain.PushResult{}
	key := r.tree.Meta.Identity.String()

	for _, a := range plan.Actions {
		if result.Blocked(a.Path) || result.Blocked(a.ParentPath) {
			result.Skipped = append(result.Skipped, a)
			continue
		}
		if err := r.run(ctx, a); err != nil {
			r.uc.logger.Error(key, "push", fmt.Sprintf("%s: %v", a, err))
			result.Failed = append(result.Failed, domain.FailedAction{Action: a, Err: &domain.ActionError{Action: a, Err: err}})
			result.FailedPaths = appendPath(result.FailedPaths, a.Subtree())
			continue
		}
		r.uc.logger.Debug(key, "push", a.String())
		result.Applied = append(result.Applied, a)
	}

	for _, a := range result.Applied {
		if p := a.Subtree(); !result.Blocked(p) {
			result.Succeeded = appendPath(result.Succeeded, p)
		}
	}
	return result
}

func appendPath(paths []domain.Path, p domain.Path) []domain.Path {
	for _, existing := range paths {
		if slices.Equal(existing, p) {
			return paths
		}
	}
	return append(paths, p)
}

func (r *pushRun) node(path domain.Path) (*domain.Issue, error) {
	node := r.tree.At(path)
	if node == nil {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrPathNotFound)
	}
	return node, nil
}

func (r *pushRun) linkAt(path domain.Path) (domain.IssueLink, error) {
	node, err := r.node(path)
	if err != nil {
		return domain.IssueLink{}, err
	}
	link, ok := node.Meta.Identity.Link()
	if !ok {
		return domain.IssueLink{}, fmt.Errorf("%s: issue not created yet", path)
	}
	return link, nil
}

func (r *pushRun) run(ctx context.Context, a domain.Action) error {
	switch a.Kind {
	case domain.ActionCreateIssue:
		return r.createIssue(ctx, a)
	case domain.ActionCreateComment:
		return r.createComment(ctx, a)
	}

	return r.retry(ctx, func(ctx context.Context) error {
		return r.runIdempotent(ctx, a)
	})
}

func (r *pushRun) runIdempotent(ctx context.Context, a domain.Action) error {
	client := r.uc.client
	switch a.Kind {
	case domain.ActionUpdateIssueState:
		link, err := r.linkAt(a.Path)
		if err != nil {
			return err
		}
		return client.UpdateIssueState(ctx, link, a.State)
	case domain.ActionUpdateIssueMeta:
		link, err := r.linkAt(a.Path)
		if err != nil {
			return err
		}
		return client.UpdateIssueMeta(ctx, link, domain.UpdateIssueMetaOptions{Title: a.Title, Labels: a.Labels})
	case domain.ActionUpdateIssueBody:
		link, err := r.linkAt(a.Path)
		if err != nil {
			return err
		}
		return client.UpdateIssueBody(ctx, link, a.Text)
	case domain.ActionUpdateComment:
		link, err := r.linkAt(a.Path)
		if err != nil {
			return err
		}
		return client.UpdateComment(ctx, link, a.CommentID, a.Text)
	case domain.ActionDeleteComment:
		link, err := r.linkAt(a.Path)
		if err != nil {
			return err
		}
		err = client.DeleteComment(ctx, link, a.CommentID)
		if errors.Is(err, domain.ErrRemoteNotFound) {
			return nil // Already gone
		}
		return err
	case domain.ActionAddSubIssue:
		parent, err := r.linkAt(a.ParentPath)
		if err != nil {
			return err
		}
		child, err := r.linkAt(a.Path)
		if err != nil {
			return err
		}
		return client.AddSubIssue(ctx, parent, child, a.Replace)
	case domain.ActionRemoveSubIssue:
		parent, err := r.linkAt(a.ParentPath)
		if err != nil {
			return err
		}
		return client.RemoveSubIssue(ctx, parent, a.Child)
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
}

// retry runs fn until it succeeds, the error is permanent, or retries run out.
// The wait doubles after each attempt.
func (r *pushRun) retry(ctx context.Context, fn func(context.Context) error) error {
	wait := r.uc.sync.RetryWaitDuration()
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil || !retryable(err) || attempt >= r.uc.sync.Retries {
			return err
		}
		if serr := r.uc.sleeper.Sleep(ctx, wait); serr != nil {
			return err
		}
		wait *= 2
	}
}

func retryable(err error) bool {
	return !errors.Is(err, domain.ErrRemoteNotFound) &&
		!errors.Is(err, domain.ErrPathNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// createIssue creates a Pending node and records its new identity.
// Before retrying a failed create, the user's recent issues are checked so
// an attempt that succeeded remotely is adopted instead of duplicated.
func (r *pushRun) createIssue(ctx context.Context, a domain.Action) error {
	node, err := r.node(a.Path)
	if err != nil {
		return err
	}

	repo := r.repo
	if a.ParentPath != nil {
		parent, err := r.linkAt(a.ParentPath)
		if err != nil {
			return err
		}
		repo = parent.RepoRef()
	}

	opts := domain.CreateIssueOptions{
		Repo:   repo,
		Title:  a.Title,
		Body:   a.Text,
		Labels: a.Labels,
		State:  a.State,
	}
	wait := r.uc.sync.RetryWaitDuration()
	for attempt := 0; ; attempt++ {
		created, cerr := r.uc.client.CreateIssue(ctx, opts)
		if created != nil {
			r.linkNode(node, created.Link)
			if cerr == nil {
				return nil
			}
			// The issue exists; only the follow-up state change failed.
			r.uc.logger.Warn(r.tree.Meta.Identity.String(), "push", fmt.Sprintf("created %s: %v", created.Link, cerr))
			return r.applyState(ctx, created.Link, a.State)
		}
		if remote, ok := r.findCreatedIssue(ctx, repo, a); ok {
			r.uc.logger.Warn(r.tree.Meta.Identity.String(), "push", fmt.Sprintf("adopted %s after failed create: %v", remote.Link, cerr))
			r.linkNode(node, remote.Link)
			if state, _ := domain.CloseStateFromRemote(remote.State, remote.StateReason); state != a.State {
				return r.applyState(ctx, remote.Link, a.State)
			}
			return nil
		}
		if !retryable(cerr) || attempt >= r.uc.sync.Retries {
			return cerr
		}
		if serr := r.uc.sleeper.Sleep(ctx, wait); serr != nil {
			return cerr
		}
		wait *= 2
	}
}

// applyState sets the state of an issue this run created.
func (r *pushRun) applyState(ctx context.Context, link domain.IssueLink, state domain.CloseState) error {
	err := r.retry(ctx, func(ctx context.Context) error {
		return r.uc.client.UpdateIssueState(ctx, link, state)
	})
	if err != nil {
		return fmt.Errorf("set state of created %s: %w", link, err)
	}
	return nil
}

func (r *pushRun) linkNode(node *domain.Issue, link domain.IssueLink) {
	node.Meta.Identity = domain.LinkedIssue(link)
	node.Meta.Author = r.user
	node.Meta.Owned = true
	if len(node.Comments) > 0 {
		node.Comments[0].Author = r.user
	}
}

// findCreatedIssue looks for a recent issue in repo that matches the
// create action, was opened by the current user and is unknown locally.
func (r *pushRun) findCreatedIssue(ctx context.Context, repo domain.RepoRef, a domain.Action) (domain.RemoteIssue, bool) {
	if r.user == "" {
		return domain.RemoteIssue{}, false
	}
	recent, err := r.uc.client.ListRecentIssues(ctx, repo, r.user)
	if err != nil {
		return domain.RemoteIssue{}, false
	}
	for _, issue := range recent {
		if issue.Title != a.Title || normalizeNewlines(issue.Body) != a.Text {
			continue
		}
		if r.known(issue.Link) {
			continue
		}
		return issue, true
	}
	return domain.RemoteIssue{}, false
}

func (r *pushRun) known(link domain.IssueLink) bool {
	id := domain.LinkedIssue(link)
	if r.tree.Find(id) != nil {
		return true
	}
	return r.base != nil && r.base.Find(id) != nil
}

// createComment creates a Pending comment and records its ID, checking for
// an earlier successful attempt before retrying.
func (r *pushRun) createComment(ctx context.Context, a domain.Action) error {
	node, err := r.node(a.Path)
	if err != nil {
		return err
	}
	link, err := r.linkAt(a.Path)
	if err != nil {
		return err
	}
	if a.CommentIndex < 1 || a.CommentIndex >= len(node.Comments) {
		return fmt.Errorf("%s: comment #%d: %w", a.Path, a.CommentIndex, domain.ErrPathNotFound)
	}

	wait := r.uc.sync.RetryWaitDuration()
	for attempt := 0; ; attempt++ {
		id, cerr := r.uc.client.CreateComment(ctx, link, a.Text)
		if cerr == nil {
			r.linkComment(node, a.CommentIndex, id)
			return nil
		}
		if id, ok := r.findCreatedComment(ctx, link, node, a.Text); ok {
			r.linkComment(node, a.CommentIndex, id)
			return nil
		}
		if !retryable(cerr) || attempt >= r.uc.sync.Retries {
			return cerr
		}
		if serr := r.uc.sleeper.Sleep(ctx, wait); serr != nil {
			return cerr
		}
		wait *= 2
	}
}

func (r *pushRun) linkComment(node *domain.Issue, idx int, id int64) {
	node.Comments[idx].Identity = domain.LinkedComment(id)
	node.Comments[idx].Author = r.user
}

func (r *pushRun) findCreatedComment(ctx context.Context, link domain.IssueLink, node *domain.Issue, text string) (int64, bool) {
	comments, err := r.uc.client.FetchComments(ctx, link)
	if err != nil {
		return 0, false
	}
	used := make(map[int64]bool)
	for _, c := range node.Comments {
		if id, ok := c.Identity.LinkedID(); ok {
			used[id] = true
		}
	}
	if r.base != nil {
		if old := r.base.Find(node.Meta.Identity); old != nil {
			for _, c := range old.Comments {
				if id, ok := c.Identity.LinkedID(); ok {
					used[id] = true
				}
			}
		}
	}
	for _, c := range comments {
		if used[c.ID] || c.Author != r.user || normalizeNewlines(c.Body) != text {
			continue
		}
		return c.ID, true
	}
	return 0, false
}
