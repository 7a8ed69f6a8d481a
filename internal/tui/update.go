package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/issuetree/internal/domain"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case MsgIssuesLoaded:
		m.issues = msg.Issues
		m.issueCursor = clamp(m.issueCursor, len(m.issues))
		return m, nil

	case MsgTreeLoaded:
		if msg.Link != m.link {
			m.nodeCursor = 0
		}
		m.link = msg.Link
		m.file = msg.File
		m.nodes = msg.Nodes
		m.nodeCursor = clamp(m.nodeCursor, len(m.nodes))
		if m.mode != ModeHelp {
			m.mode = ModeTree
		}
		return m, nil

	case MsgBlockerPopped:
		m.status = "Done: " + msg.Done.Description
		if msg.Next != nil {
			m.status += ", next: " + msg.Next.Description
		}
		return m, tea.Batch(m.loadTree(m.link), m.loadIssues())

	case MsgError:
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.mode = m.prevMode
		}
		return m, nil
	}
	if key.Matches(msg, m.keys.Help) {
		m.prevMode = m.mode
		m.mode = ModeHelp
		return m, nil
	}

	m.err = nil
	switch m.mode {
	case ModeIssues:
		return m.handleIssuesKey(msg)
	case ModeTree:
		return m.handleTreeKey(msg)
	case ModeHelp:
	}
	return m, nil
}

func (m *Model) handleIssuesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.issueCursor = clamp(m.issueCursor-1, len(m.issues))
	case key.Matches(msg, m.keys.Down):
		m.issueCursor = clamp(m.issueCursor+1, len(m.issues))
	case key.Matches(msg, m.keys.Enter):
		issue := m.SelectedIssue()
		if issue == nil {
			return m, nil
		}
		m.status = ""
		return m, m.loadTree(issue.Link)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadIssues()
	}
	return m, nil
}

func (m *Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.nodeCursor = clamp(m.nodeCursor-1, len(m.nodes))
	case key.Matches(msg, m.keys.Down):
		m.nodeCursor = clamp(m.nodeCursor+1, len(m.nodes))
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeIssues
		m.status = ""
		return m, m.loadIssues()
	case key.Matches(msg, m.keys.Pop):
		node := m.SelectedNode()
		if node == nil {
			return m, nil
		}
		if node.Current == nil {
			m.err = fmt.Errorf("%s: %w", node.Title, domain.ErrNoBlockers)
			return m, nil
		}
		return m, m.popBlocker(m.link, node.Path)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadTree(m.link)
	}
	return m, nil
}
