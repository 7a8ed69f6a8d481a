package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors.
var (
	ErrParse              = errors.New("parse error")
	ErrIdentityMismatch   = errors.New("identity mismatch")
	ErrRemoteActionFailed = errors.New("remote action failed")
	ErrStaleBase          = errors.New("remote changed since last sync (merge required)")
	ErrRemoteNotFound     = errors.New("remote issue not found")
	ErrSnapshotNotFound   = errors.New("snapshot not found (run 'issuetree pull' first)")
	ErrInvalidLink        = errors.New("invalid issue link")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrNoBlockers         = errors.New("no actionable blocker")
	ErrConfigExists       = errors.New("config file already exists")
	ErrNotInitialized     = errors.New("issuetree not initialized (run 'issuetree config init' first)")
	ErrPathNotFound       = errors.New("issue path not found")
	ErrLocalChanges       = errors.New("local file has unpushed edits (push first or pull with --force)")
	ErrNotGitRepository   = errors.New("not a git repository")
)

// ParseError reports a malformed line in a local issue file.
type ParseError struct {
	Msg  string
	Line int // 1-based; 0 when the position is unknown
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Unwrap lets errors.Is match ErrParse.
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// IdentityMismatchError reports a linked node whose remote counterpart
// no longer matches what the local tree claims.
type IdentityMismatchError struct {
	Reason string
	Link   IssueLink
	Path   Path
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("%s at %s (%s): %s", ErrIdentityMismatch, e.Link, e.Path, e.Reason)
}

func (e *IdentityMismatchError) Unwrap() error {
	return ErrIdentityMismatch
}

// StaleBaseError reports that the remote issue was updated after the snapshot was taken.
// Fields are ordered to minimize memory padding.
type StaleBaseError struct {
	Snapshot time.Time
	Remote   time.Time
	Link     IssueLink
}

func (e *StaleBaseError) Error() string {
	return fmt.Sprintf("%s: %s updated at %s, snapshot has %s",
		ErrStaleBase, e.Link, e.Remote.Format(time.RFC3339), e.Snapshot.Format(time.RFC3339))
}

func (e *StaleBaseError) Unwrap() error {
	return ErrStaleBase
}

// ActionError wraps the failure of a single remote action.
type ActionError struct {
	Err    error
	Action Action
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRemoteActionFailed, e.Action, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ActionError) Unwrap() []error {
	return []error{ErrRemoteActionFailed, e.Err}
}
