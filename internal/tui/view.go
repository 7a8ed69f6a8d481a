package tui

import (
	"fmt"
	"strings"

	"github.com/runoshun/issuetree/internal/usecase"
)

// View renders the TUI.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.mode {
	case ModeHelp:
		content = m.viewHelp()
	case ModeTree:
		content = m.viewTree()
	case ModeIssues:
		content = m.viewIssues()
	}

	return m.styles.App.Render(content)
}

// viewIssues renders the list of synced issue trees.
func (m *Model) viewIssues() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("Synced issues"))
	b.WriteString("\n\n")

	if len(m.issues) == 0 {
		b.WriteString(m.styles.Muted.Render("No synced issues. Pull one with 'issuetree pull <issue>'."))
		b.WriteString("\n")
	}
	for i := range m.issues {
		b.WriteString(m.renderIssue(&m.issues[i], i == m.issueCursor))
		b.WriteString("\n")
	}

	b.WriteString(m.viewFooter())
	return b.String()
}

func (m *Model) renderIssue(st *usecase.IssueStatus, selected bool) string {
	cursor, title := "  ", st.Title
	if selected {
		cursor = "> "
		title = m.styles.Selected.Render(title)
	} else {
		title = m.styles.Item.Render(title)
	}

	line := cursor + m.styles.Muted.Render(st.Link.String()) + " " + title
	switch {
	case st.Err != nil:
		line += " " + m.styles.ErrorMsg.Render(st.Err.Error())
	case !st.HasLocal:
		line += " " + m.styles.Muted.Render("(no local file)")
	case st.Pending > 0:
		line += " " + m.styles.Pending.Render(fmt.Sprintf("%d pending", st.Pending))
	}
	return line
}

// viewTree renders the outline of the open issue file.
func (m *Model) viewTree() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render(m.link.String()))
	b.WriteString(" ")
	b.WriteString(m.styles.Muted.Render(m.file))
	b.WriteString("\n\n")

	for i := range m.nodes {
		b.WriteString(m.renderNode(&m.nodes[i], i == m.nodeCursor))
		b.WriteString("\n")
	}

	b.WriteString(m.viewFooter())
	return b.String()
}

func (m *Model) renderNode(node *usecase.IssueNode, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}
	check := "[ ] "
	if node.Closed {
		check = "[x] "
	}

	title := node.Title
	switch {
	case selected:
		title = m.styles.Selected.Render(title)
	case node.Closed:
		title = m.styles.Closed.Render(title)
	}

	line := cursor + strings.Repeat("  ", node.Depth) + check + title + " " + m.styles.Muted.Render(node.Identity)
	if node.Blockers > 0 {
		line += " " + m.styles.Muted.Render(fmt.Sprintf("%d/%d", node.Done, node.Blockers))
	}
	if node.Current != nil && !node.Closed {
		line += " " + m.styles.Current.Render("-> "+node.Current.Description)
	}
	if node.Warning != "" {
		line += " " + m.styles.Warning.Render("! "+node.Warning)
	}
	return line
}

// viewFooter renders the status line and the short help.
func (m *Model) viewFooter() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString("\n" + m.styles.ErrorMsg.Render("Error: "+m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + m.styles.Status.Render(m.status) + "\n")
	}
	b.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

// viewHelp renders the full keybinding list.
func (m *Model) viewHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Keys"))
	b.WriteString("\n\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("Press ? or esc to close"))
	return b.String()
}
