package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/issuetree/internal/app"
	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/usecase"
)

// Model is the main bubbletea model for the TUI.
type Model struct {
	// Dependencies (pointers first for alignment)
	container *app.Container
	err       error

	// State
	issues []usecase.IssueStatus
	nodes  []usecase.IssueNode
	file   string
	status string

	// Components
	keys   KeyMap
	styles Styles
	help   help.Model

	link domain.IssueLink // Tree shown in ModeTree

	// Numeric state (smaller types last)
	mode        Mode
	prevMode    Mode
	issueCursor int
	nodeCursor  int
	width       int
	height      int
}

// New creates a new TUI Model. A non-zero start link opens that tree directly.
func New(c *app.Container, start domain.IssueLink) *Model {
	return &Model{
		container: c,
		link:      start,
		mode:      ModeIssues,
		keys:      DefaultKeyMap(),
		styles:    DefaultStyles(),
		help:      help.New(),
	}
}

// Init initializes the model and returns the initial command.
func (m *Model) Init() tea.Cmd {
	if m.link != (domain.IssueLink{}) {
		return tea.Batch(m.loadIssues(), m.loadTree(m.link))
	}
	return m.loadIssues()
}

// loadIssues returns a command that lists the synced issue trees.
func (m *Model) loadIssues() tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.ListIssuesUseCase().Execute(context.Background())
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgIssuesLoaded{Issues: out.Issues}
	}
}

// loadTree returns a command that reads the outline of an issue file.
func (m *Model) loadTree(link domain.IssueLink) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.ShowIssueUseCase().Execute(context.Background(), usecase.BlockerTarget{Link: link})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTreeLoaded{Link: link, File: out.File, Nodes: out.Nodes}
	}
}

// popBlocker returns a command that marks the node's current blocker done.
func (m *Model) popBlocker(link domain.IssueLink, path domain.Path) tea.Cmd {
	return func() tea.Msg {
		out, err := m.container.PopBlockerUseCase().Execute(context.Background(), usecase.BlockerTarget{Link: link, Path: path})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgBlockerPopped{Done: out.Done, Next: out.Next}
	}
}

// SelectedIssue returns the highlighted issue tree, or nil if none.
func (m *Model) SelectedIssue() *usecase.IssueStatus {
	if m.issueCursor < 0 || m.issueCursor >= len(m.issues) {
		return nil
	}
	return &m.issues[m.issueCursor]
}

// SelectedNode returns the highlighted node of the open tree, or nil if none.
func (m *Model) SelectedNode() *usecase.IssueNode {
	if m.nodeCursor < 0 || m.nodeCursor >= len(m.nodes) {
		return nil
	}
	return &m.nodes[m.nodeCursor]
}

// Mode returns the current UI mode.
func (m *Model) Mode() Mode {
	return m.mode
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}
