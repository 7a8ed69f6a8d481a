package domain

import "time"

// RemoteIssue is an issue as reported by the tracker.
// Fields are ordered to minimize memory padding.
type RemoteIssue struct {
	UpdatedAt   time.Time
	Title       string
	Body        string
	Author      string
	State       string
	StateReason string
	Labels      []string
	Link        IssueLink
	ID          int64 // Tracker-wide ID, used by the sub-issue endpoints
}

// RemoteComment is a comment as reported by the tracker.
// Fields are ordered to minimize memory padding.
type RemoteComment struct {
	CreatedAt time.Time
	Body      string
	Author    string
	ID        int64
}

// CreatedIssue is returned after creating an issue.
type CreatedIssue struct {
	URL  string
	Link IssueLink
	ID   int64
}

// CreateIssueOptions configures issue creation.
// Fields are ordered to minimize memory padding.
type CreateIssueOptions struct {
	Title  string
	Body   string
	Labels []string
	Repo   RepoRef
	State  CloseState // Applied right after creation when not open
}

// UpdateIssueMetaOptions configures title and label updates.
type UpdateIssueMetaOptions struct {
	Title  string
	Labels []string // Replaces the full label set
}
