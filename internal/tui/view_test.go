package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/usecase"
)

func sized(m *Model) *Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(*Model)
}

func TestView_Loading(t *testing.T) {
	m := New(nil, domain.IssueLink{})

	assert.Equal(t, "Loading...", m.View())
}

func TestView_EmptyIssues(t *testing.T) {
	m := sized(New(nil, domain.IssueLink{}))

	view := m.View()

	assert.Contains(t, view, "Synced issues")
	assert.Contains(t, view, "No synced issues")
}

func TestView_Issues(t *testing.T) {
	m := sized(New(nil, domain.IssueLink{}))
	m.issues = []usecase.IssueStatus{
		{Link: rootLink, Title: "Release", HasLocal: true, Pending: 3},
		{Link: rootLink.WithNumber(5), Title: "Gone"},
		{Link: rootLink.WithNumber(6), Title: "Broken", HasLocal: true, Err: errors.New("bad marker")},
	}

	view := m.View()

	assert.Contains(t, view, "> acme/app#1 Release 3 pending")
	assert.Contains(t, view, "acme/app#5 Gone (no local file)")
	assert.Contains(t, view, "Broken bad marker")
}

func TestView_Tree(t *testing.T) {
	m := sized(New(nil, rootLink))
	m.mode = ModeTree
	m.file = "/ws/issues/acme/app/1.md"
	m.nodes = []usecase.IssueNode{
		{Title: "Release", Identity: "acme/app#1", Blockers: 2, Done: 1, Current: &domain.BlockerItem{Description: "ship"}},
		{Title: "Docs", Identity: "acme/app#2", Depth: 1, Closed: true},
		{Title: "Stub", Identity: "acme/app#3", Depth: 1, Warning: "fetch failed"},
	}
	m.status = "Done: pack"

	view := m.View()

	assert.Contains(t, view, "acme/app#1 /ws/issues/acme/app/1.md")
	assert.Contains(t, view, "> [ ] Release acme/app#1 1/2 -> ship")
	assert.Contains(t, view, "    [x] Docs acme/app#2")
	assert.Contains(t, view, "Stub acme/app#3 ! fetch failed")
	assert.Contains(t, view, "Done: pack")
}

func TestView_ErrorReplacesStatus(t *testing.T) {
	m := sized(New(nil, domain.IssueLink{}))
	m.status = "Done: pack"
	m.err = errors.New("boom")

	view := m.View()

	assert.Contains(t, view, "Error: boom")
	assert.NotContains(t, view, "Done: pack")
}

func TestView_Help(t *testing.T) {
	m := sized(New(nil, domain.IssueLink{}))
	m.mode = ModeHelp

	view := m.View()

	assert.Contains(t, view, "Keys")
	assert.Contains(t, view, "refresh")
	assert.Contains(t, view, "Press ? or esc to close")
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		want string
		mode Mode
	}{
		{"issues", ModeIssues},
		{"tree", ModeTree},
		{"help", ModeHelp},
		{"unknown", Mode(99)},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.String())
		})
	}
}
