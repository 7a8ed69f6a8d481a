// Package usecase contains application use cases.
package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/runoshun/issuetree/internal/domain"
)

// IngestIssueInput contains the parameters for ingesting a remote issue tree.
type IngestIssueInput struct {
	CurrentUser string           // Login for ownership; resolved via the client when empty
	Link        domain.IssueLink // Root issue (required)
}

// IngestIssueOutput contains the ingested tree.
type IngestIssueOutput struct {
	Warnings []string
	Issue    domain.Issue
}

// IngestIssue builds an issue tree from the remote tracker.
type IngestIssue struct {
	client      domain.IssueClient
	logger      domain.Logger
	concurrency int
}

// NewIngestIssue creates a new IngestIssue use case.
// concurrency bounds the number of in-flight remote calls.
func NewIngestIssue(client domain.IssueClient, logger domain.Logger, concurrency int) *IngestIssue {
	if concurrency < 1 {
		concurrency = 1
	}
	return &IngestIssue{
		client:      client,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Execute fetches the root issue and its sub-issues recursively.
// Only failures on the root are fatal; a failing sub-issue becomes a stub.
func (uc *IngestIssue) Execute(ctx context.Context, in IngestIssueInput) (*IngestIssueOutput, error) {
	key := in.Link.String()
	user := in.CurrentUser
	if user == "" {
		u, err := uc.client.CurrentUser(ctx)
		if err != nil {
			uc.logger.Warn(key, "ingest", fmt.Sprintf("resolve current user: %v", err))
		}
		user = u
	}

	root, err := uc.client.FetchIssue(ctx, in.Link)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", in.Link, err)
	}

	w := &ingestWalk{
		client: uc.client,
		sem:    semaphore.NewWeighted(int64(uc.concurrency)),
		user:   user,
	}
	issue, err := w.build(ctx, root, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", in.Link, err)
	}

	for _, warning := range w.warnings {
		uc.logger.Warn(key, "ingest", warning)
	}
	uc.logger.Info(key, "ingest", fmt.Sprintf("ingested %d issues", len(issue.Flatten())))
	return &IngestIssueOutput{Issue: issue, Warnings: w.warnings}, nil
}

// ingestWalk holds the state shared by one recursive ingest.
type ingestWalk struct {
	client   domain.IssueClient
	sem      *semaphore.Weighted
	user     string
	warnings []string
	mu       sync.Mutex
}

func (w *ingestWalk) warn(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warnings = append(w.warnings, fmt.Sprintf(format, args...))
}

// call runs one remote call under the concurrency limit.
func (w *ingestWalk) call(ctx context.Context, fn func(context.Context) error) error {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer w.sem.Release(1)
	return fn(ctx)
}

// build ingests remote and its subtree. ancestors holds the links on the
// path from the root, used to cut cycles in the sub-issue graph.
func (w *ingestWalk) build(ctx context.Context, remote *domain.RemoteIssue, ancestors []domain.IssueLink) (domain.Issue, error) {
	var comments []domain.RemoteComment
	var subs []domain.RemoteIssue

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.call(gctx, func(ctx context.Context) error {
			var err error
			comments, err = w.client.FetchComments(ctx, remote.Link)
			if err != nil {
				return fmt.Errorf("fetch comments: %w", err)
			}
			return nil
		})
	})
	g.Go(func() error {
		return w.call(gctx, func(ctx context.Context) error {
			var err error
			subs, err = w.client.FetchSubIssues(ctx, remote.Link)
			if err != nil {
				return fmt.Errorf("fetch sub-issues: %w", err)
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return domain.Issue{}, err
	}

	issue := w.translate(remote, comments)
	path := append(ancestors[:len(ancestors):len(ancestors)], remote.Link)

	children := make([]domain.Issue, len(subs))
	cg, cctx := errgroup.WithContext(ctx)
	for i := range subs {
		sub := &subs[i]
		if slices.Contains(path, sub.Link) {
			msg := fmt.Sprintf("%v: sub-issue cycle through %s", domain.ErrParse, sub.Link)
			w.warn("%s", msg)
			children[i] = stubIssue(sub, msg)
			continue
		}
		cg.Go(func() error {
			child, err := w.build(cctx, sub, path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.warn("%s: %v", sub.Link, err)
				children[i] = stubIssue(sub, err.Error())
				return nil
			}
			children[i] = child
			return nil
		})
	}
	if err := cg.Wait(); err != nil {
		return domain.Issue{}, err
	}
	if len(children) > 0 {
		issue.Children = children
	}
	return issue, nil
}

// translate maps a fetched issue and its comments to a tree node without children.
func (w *ingestWalk) translate(remote *domain.RemoteIssue, comments []domain.RemoteComment) domain.Issue {
	state, known := domain.CloseStateFromRemote(remote.State, remote.StateReason)
	if !known {
		w.warn("%s: unknown state %q treated as open", remote.Link, remote.State)
	}

	issue := domain.NewIssue(domain.IssueMeta{
		Title:      remote.Title,
		Author:     remote.Author,
		Identity:   domain.LinkedIssue(remote.Link),
		CloseState: state,
		Owned:      w.user != "" && remote.Author == w.user,
	}, normalizeNewlines(remote.Body))
	issue.SetLabels(remote.Labels)

	for _, c := range comments {
		issue.Comments = append(issue.Comments, domain.Comment{
			Identity: domain.LinkedComment(c.ID),
			Author:   c.Author,
			Text:     normalizeNewlines(c.Body),
		})
	}
	if !remote.UpdatedAt.IsZero() {
		t := remote.UpdatedAt.UTC()
		issue.LastContentsChange = &t
	}
	for _, warning := range issue.Blockers.Warnings() {
		w.warn("%s: blockers: %s", remote.Link, warning)
	}
	return issue
}

// stubIssue stands in for a sub-issue that could not be ingested.
func stubIssue(remote *domain.RemoteIssue, warning string) domain.Issue {
	title := remote.Title
	if strings.TrimSpace(title) == "" {
		title = remote.Link.String()
	}
	issue := domain.NewIssue(domain.IssueMeta{
		Title:    title,
		Identity: domain.LinkedIssue(remote.Link),
	}, "")
	issue.Warning = warning
	return issue
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
