package domain

import (
	"context"
	"io"
	"time"
)

// IssueClient talks to the remote issue tracker.
// Fetch methods return ErrRemoteNotFound when the issue does not exist.
type IssueClient interface {
	// FetchIssue retrieves a single issue.
	FetchIssue(ctx context.Context, link IssueLink) (*RemoteIssue, error)

	// FetchComments retrieves all comments of an issue in creation order.
	FetchComments(ctx context.Context, link IssueLink) ([]RemoteComment, error)

	// FetchSubIssues retrieves the direct sub-issues of an issue in tracker order.
	FetchSubIssues(ctx context.Context, link IssueLink) ([]RemoteIssue, error)

	// ListRecentIssues retrieves the latest issues opened by creator in repo,
	// newest first.
	ListRecentIssues(ctx context.Context, repo RepoRef, creator string) ([]RemoteIssue, error)

	// CreateIssue creates an issue. A non-nil result with an error means the
	// issue exists but opts.State was not applied.
	CreateIssue(ctx context.Context, opts CreateIssueOptions) (*CreatedIssue, error)

	// UpdateIssueState opens or closes an issue.
	UpdateIssueState(ctx context.Context, link IssueLink, state CloseState) error

	// UpdateIssueBody replaces an issue's body.
	UpdateIssueBody(ctx context.Context, link IssueLink, body string) error

	// UpdateIssueMeta replaces an issue's title and labels.
	UpdateIssueMeta(ctx context.Context, link IssueLink, opts UpdateIssueMetaOptions) error

	// CreateComment adds a comment and returns its ID.
	CreateComment(ctx context.Context, link IssueLink, body string) (int64, error)

	// UpdateComment replaces a comment's text.
	UpdateComment(ctx context.Context, link IssueLink, id int64, body string) error

	// DeleteComment removes a comment.
	DeleteComment(ctx context.Context, link IssueLink, id int64) error

	// AddSubIssue attaches child under parent. With replaceParent the child
	// is moved away from its current parent.
	AddSubIssue(ctx context.Context, parent, child IssueLink, replaceParent bool) error

	// RemoveSubIssue detaches child from parent.
	RemoveSubIssue(ctx context.Context, parent, child IssueLink) error

	// CurrentUser returns the authenticated login.
	CurrentUser(ctx context.Context) (string, error)
}

// SnapshotStore persists last-synced snapshots.
type SnapshotStore interface {
	// Load retrieves the snapshot of a root issue.
	// Returns ErrSnapshotNotFound if none was saved.
	Load(link IssueLink) (*Snapshot, error)

	// Save replaces the snapshot of a root issue.
	Save(snapshot *Snapshot) error

	// Delete removes the snapshot of a root issue.
	Delete(link IssueLink) error

	// List returns all stored snapshots sorted by key.
	List() ([]*Snapshot, error)
}

// IssueFileStore reads and writes local issue files.
type IssueFileStore interface {
	// Path returns the local file path for a root issue.
	Path(link IssueLink) string

	// DraftPath returns the local file path for a new root issue.
	DraftPath(repo RepoRef, name string) string

	// Read returns the file content. Returns an error wrapping os.ErrNotExist if missing.
	Read(path string) (string, error)

	// Write replaces the file content atomically.
	Write(path, content string) error

	// Remove deletes the file. Missing files are not an error.
	Remove(path string) error
}

// CommandExecutor executes external commands.
type CommandExecutor interface {
	// Execute runs the command and returns its standard output.
	Execute(ctx context.Context, cmd *ExecCommand) ([]byte, error)

	// ExecuteInteractive runs a command attached to the terminal.
	ExecuteInteractive(ctx context.Context, cmd *ExecCommand) error
}

// Editor lets the user edit a file.
type Editor interface {
	// Edit blocks until the user closes the file.
	Edit(ctx context.Context, path string) error
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (repo + global).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// ConfigManager manages configuration files.
type ConfigManager interface {
	// GetRepoConfigInfo returns information about the workspace config file.
	GetRepoConfigInfo() ConfigInfo

	// GetGlobalConfigInfo returns information about the global config file.
	GetGlobalConfigInfo() ConfigInfo

	// InitRepoConfig writes the workspace config file.
	// Returns ErrConfigExists if it already exists.
	InitRepoConfig(cfg *Config) error

	// InitGlobalConfig writes the global config file.
	// Returns ErrConfigExists if it already exists.
	InitGlobalConfig(cfg *Config) error
}

// ConfigInfo describes a config file.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// Logger writes structured log lines.
type Logger interface {
	// Info logs an info message.
	Info(issue, category, msg string)

	// Debug logs a debug message.
	Debug(issue, category, msg string)

	// Warn logs a warning message.
	Warn(issue, category, msg string)

	// Error logs an error message.
	Error(issue, category, msg string)

	io.Closer
}

// NopLogger discards all log lines.
type NopLogger struct{}

func (NopLogger) Info(string, string, string)  {}
func (NopLogger) Debug(string, string, string) {}
func (NopLogger) Warn(string, string, string)  {}
func (NopLogger) Error(string, string, string) {}
func (NopLogger) Close() error                 { return nil }

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleeper waits between retries.
type Sleeper interface {
	// Sleep waits for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper implements Sleeper with a timer.
type RealSleeper struct{}

// Sleep waits for d or until ctx is done.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
