// Package github implements the issue tracker client on top of the gh CLI.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/runoshun/issuetree/internal/domain"
)

// Client implements domain.IssueClient by running `gh api`.
// Authentication and host selection are left to gh.
type Client struct {
	executor domain.CommandExecutor
	ghPath   string
}

// Ensure Client implements domain.IssueClient interface.
var _ domain.IssueClient = (*Client)(nil)

// NewClient creates a new gh-backed client. ghPath defaults to "gh".
func NewClient(executor domain.CommandExecutor, ghPath string) *Client {
	if ghPath == "" {
		ghPath = domain.DefaultGHPath
	}
	return &Client{executor: executor, ghPath: ghPath}
}

// apiIssue is the REST representation of an issue.
type apiIssue struct {
	UpdatedAt     time.Time  `json:"updated_at"`
	Title         string     `json:"title"`
	Body          *string    `json:"body"`
	State         string     `json:"state"`
	StateReason   *string    `json:"state_reason"`
	HTMLURL       string     `json:"html_url"`
	RepositoryURL string     `json:"repository_url"`
	PullRequest   *struct{}  `json:"pull_request"`
	User          apiUser    `json:"user"`
	Labels        []apiLabel `json:"labels"`
	ID            int64      `json:"id"`
	Number        int        `json:"number"`
}

type apiComment struct {
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
	User      apiUser   `json:"user"`
	ID        int64     `json:"id"`
}

type apiUser struct {
	Login string `json:"login"`
}

type apiLabel struct {
	Name string `json:"name"`
}

func (i *apiIssue) toRemote() (domain.RemoteIssue, error) {
	link, err := issueLink(i)
	if err != nil {
		return domain.RemoteIssue{}, err
	}
	out := domain.RemoteIssue{
		Link:      link,
		ID:        i.ID,
		Title:     i.Title,
		Author:    i.User.Login,
		State:     i.State,
		UpdatedAt: i.UpdatedAt,
	}
	if i.Body != nil {
		out.Body = *i.Body
	}
	if i.StateReason != nil {
		out.StateReason = *i.StateReason
	}
	for _, l := range i.Labels {
		out.Labels = append(out.Labels, l.Name)
	}
	return out, nil
}

// issueLink derives the link from repository_url, which also works on
// GitHub Enterprise hosts, and falls back to html_url.
func issueLink(i *apiIssue) (domain.IssueLink, error) {
	if parts := strings.Split(strings.TrimSuffix(i.RepositoryURL, "/"), "/"); len(parts) >= 2 && i.Number > 0 {
		owner, repo := parts[len(parts)-2], parts[len(parts)-1]
		if owner != "" && repo != "" && i.RepositoryURL != "" {
			return domain.IssueLink{Owner: owner, Repo: repo, Number: i.Number}, nil
		}
	}
	return domain.ParseIssueLink(i.HTMLURL)
}

// recentIssueLimit bounds the page read by ListRecentIssues.
const recentIssueLimit = 30

func issuePath(link domain.IssueLink) string {
	return fmt.Sprintf("repos/%s/%s/issues/%d", link.Owner, link.Repo, link.Number)
}

func commentPath(link domain.IssueLink, id int64) string {
	return fmt.Sprintf("repos/%s/%s/issues/comments/%d", link.Owner, link.Repo, id)
}

// api runs one request. body, when not nil, is sent as JSON on stdin.
func (c *Client) api(ctx context.Context, method, path string, body any, paginate bool) ([]byte, error) {
	args := []string{"api", "-X", method, "-H", "Accept: application/vnd.github+json"}
	if paginate {
		args = append(args, "--paginate")
	}
	args = append(args, path)

	cmd := domain.NewCommand(c.ghPath, args, "")
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		cmd.Args = append(cmd.Args, "--input", "-")
		cmd.Stdin = data
	}

	out, err := c.executor.Execute(ctx, cmd)
	if err != nil {
		return nil, classify(err, method, path)
	}
	return out, nil
}

// classify maps gh failures onto domain errors.
func classify(err error, method, path string) error {
	var execErr *domain.ExecError
	if errors.As(err, &execErr) && strings.Contains(execErr.Stderr, "HTTP 404") {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrRemoteNotFound)
	}
	return fmt.Errorf("%s %s: %w", method, path, err)
}

// decodeAll decodes paginated output. gh prints one JSON array per page
// back to back, so the stream is read value by value.
func decodeAll[T any](data []byte) ([]T, error) {
	var all []T
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var page []T
		err := dec.Decode(&page)
		if errors.Is(err, io.EOF) {
			return all, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		all = append(all, page...)
	}
}

// FetchIssue retrieves a single issue.
func (c *Client) FetchIssue(ctx context.Context, link domain.IssueLink) (*domain.RemoteIssue, error) {
	out, err := c.api(ctx, "GET", issuePath(link), nil, false)
	if err != nil {
		return nil, err
	}
	var issue apiIssue
	if err := json.Unmarshal(out, &issue); err != nil {
		return nil, fmt.Errorf("decode issue %s: %w", link, err)
	}
	remote, err := issue.toRemote()
	if err != nil {
		return nil, err
	}
	return &remote, nil
}

// FetchComments retrieves all comments of an issue in creation order.
func (c *Client) FetchComments(ctx context.Context, link domain.IssueLink) ([]domain.RemoteComment, error) {
	out, err := c.api(ctx, "GET", issuePath(link)+"/comments?per_page=100", nil, true)
	if err != nil {
		return nil, err
	}
	comments, err := decodeAll[apiComment](out)
	if err != nil {
		return nil, err
	}
	result := make([]domain.RemoteComment, 0, len(comments))
	for _, cm := range comments {
		result = append(result, domain.RemoteComment{
			ID:        cm.ID,
			Author:    cm.User.Login,
			Body:      cm.Body,
			CreatedAt: cm.CreatedAt,
		})
	}
	return result, nil
}

// FetchSubIssues retrieves the direct sub-issues of an issue in tracker order.
func (c *Client) FetchSubIssues(ctx context.Context, link domain.IssueLink) ([]domain.RemoteIssue, error) {
	out, err := c.api(ctx, "GET", issuePath(link)+"/sub_issues?per_page=100", nil, true)
	if err != nil {
		return nil, err
	}
	issues, err := decodeAll[apiIssue](out)
	if err != nil {
		return nil, err
	}
	result := make([]domain.RemoteIssue, 0, len(issues))
	for i := range issues {
		remote, err := issues[i].toRemote()
		if err != nil {
			return nil, err
		}
		result = append(result, remote)
	}
	return result, nil
}

// ListRecentIssues retrieves the latest issues opened by creator in repo,
// newest first. Pull requests are skipped.
func (c *Client) ListRecentIssues(ctx context.Context, repo domain.RepoRef, creator string) ([]domain.RemoteIssue, error) {
	path := fmt.Sprintf("repos/%s/%s/issues?creator=%s&state=all&sort=created&direction=desc&per_page=%d",
		repo.Owner, repo.Name, url.QueryEscape(creator), recentIssueLimit)
	out, err := c.api(ctx, "GET", path, nil, false)
	if err != nil {
		return nil, err
	}
	var issues []apiIssue
	if err := json.Unmarshal(out, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	result := make([]domain.RemoteIssue, 0, len(issues))
	for i := range issues {
		if issues[i].PullRequest != nil {
			continue
		}
		remote, err := issues[i].toRemote()
		if err != nil {
			return nil, err
		}
		result = append(result, remote)
	}
	return result, nil
}

// CreateIssue creates an issue, closing it right away when opts.State says so.
func (c *Client) CreateIssue(ctx context.Context, opts domain.CreateIssueOptions) (*domain.CreatedIssue, error) {
	req := map[string]any{"title": opts.Title, "body": opts.Body}
	if len(opts.Labels) > 0 {
		req["labels"] = opts.Labels
	}
	path := fmt.Sprintf("repos/%s/%s/issues", opts.Repo.Owner, opts.Repo.Name)
	out, err := c.api(ctx, "POST", path, req, false)
	if err != nil {
		return nil, err
	}

	var issue apiIssue
	if err := json.Unmarshal(out, &issue); err != nil {
		return nil, fmt.Errorf("decode created issue: %w", err)
	}
	link, err := issueLink(&issue)
	if err != nil {
		return nil, err
	}
	created := &domain.CreatedIssue{URL: issue.HTMLURL, Link: link, ID: issue.ID}

	if !opts.State.IsOpen() {
		if err := c.UpdateIssueState(ctx, link, opts.State); err != nil {
			return created, fmt.Errorf("close created issue %s: %w", link, err)
		}
	}
	return created, nil
}

// UpdateIssueState opens or closes an issue.
func (c *Client) UpdateIssueState(ctx context.Context, link domain.IssueLink, state domain.CloseState) error {
	req := map[string]any{"state": state.RemoteState()}
	if reason := state.RemoteStateReason(); reason != "" {
		req["state_reason"] = reason
	} else {
		req["state_reason"] = "reopened"
	}
	_, err := c.api(ctx, "PATCH", issuePath(link), req, false)
	return err
}

// UpdateIssueBody replaces an issue's body.
func (c *Client) UpdateIssueBody(ctx context.Context, link domain.IssueLink, body string) error {
	_, err := c.api(ctx, "PATCH", issuePath(link), map[string]any{"body": body}, false)
	return err
}

// UpdateIssueMeta replaces an issue's title and labels.
func (c *Client) UpdateIssueMeta(ctx context.Context, link domain.IssueLink, opts domain.UpdateIssueMetaOptions) error {
	labels := opts.Labels
	if labels == nil {
		labels = []string{}
	}
	_, err := c.api(ctx, "PATCH", issuePath(link), map[string]any{"title": opts.Title, "labels": labels}, false)
	return err
}

// CreateComment adds a comment and returns its ID.
func (c *Client) CreateComment(ctx context.Context, link domain.IssueLink, body string) (int64, error) {
	out, err := c.api(ctx, "POST", issuePath(link)+"/comments", map[string]any{"body": body}, false)
	if err != nil {
		return 0, err
	}
	var created apiComment
	if err := json.Unmarshal(out, &created); err != nil {
		return 0, fmt.Errorf("decode created comment: %w", err)
	}
	return created.ID, nil
}

// UpdateComment replaces a comment's text.
func (c *Client) UpdateComment(ctx context.Context, link domain.IssueLink, id int64, body string) error {
	_, err := c.api(ctx, "PATCH", commentPath(link, id), map[string]any{"body": body}, false)
	return err
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, link domain.IssueLink, id int64) error {
	_, err := c.api(ctx, "DELETE", commentPath(link, id), nil, false)
	return err
}

// AddSubIssue attaches child under parent. The endpoint takes the child's
// tracker-wide ID, so the child is fetched first.
func (c *Client) AddSubIssue(ctx context.Context, parent, child domain.IssueLink, replaceParent bool) error {
	sub, err := c.FetchIssue(ctx, child)
	if err != nil {
		return err
	}
	req := map[string]any{"sub_issue_id": sub.ID}
	if replaceParent {
		req["replace_parent"] = true
	}
	_, err = c.api(ctx, "POST", issuePath(parent)+"/sub_issues", req, false)
	return err
}

// RemoveSubIssue detaches child from parent.
func (c *Client) RemoveSubIssue(ctx context.Context, parent, child domain.IssueLink) error {
	sub, err := c.FetchIssue(ctx, child)
	if err != nil {
		return err
	}
	_, err = c.api(ctx, "DELETE", issuePath(parent)+"/sub_issue", map[string]any{"sub_issue_id": sub.ID}, false)
	return err
}

// CurrentUser returns the authenticated login.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	out, err := c.api(ctx, "GET", "user", nil, false)
	if err != nil {
		return "", err
	}
	var user apiUser
	if err := json.Unmarshal(out, &user); err != nil {
		return "", fmt.Errorf("decode user: %w", err)
	}
	if user.Login == "" {
		return "", errors.New("gh returned no login")
	}
	return user.Login, nil
}
