package tui

import (
	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/usecase"
)

// Msg is the sealed interface for all TUI messages.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgIssuesLoaded is sent when the synced issue list is loaded.
type MsgIssuesLoaded struct {
	Issues []usecase.IssueStatus
}

func (MsgIssuesLoaded) sealed() {}

// MsgTreeLoaded is sent when an issue file outline is loaded.
type MsgTreeLoaded struct {
	File  string
	Nodes []usecase.IssueNode
	Link  domain.IssueLink
}

func (MsgTreeLoaded) sealed() {}

// MsgBlockerPopped is sent when a blocker was marked done.
type MsgBlockerPopped struct {
	Next *domain.BlockerItem
	Done domain.BlockerItem
}

func (MsgBlockerPopped) sealed() {}

// MsgError is sent when a command fails.
type MsgError struct {
	Err error
}

func (MsgError) sealed() {}
