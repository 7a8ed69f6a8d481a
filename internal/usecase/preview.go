package usecase

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/runoshun/issuetree/internal/domain"
)

// ActionPreview pairs a planned action with a line diff of the text it replaces.
type ActionPreview struct {
	Diff   string // Unified-style lines prefixed with "-", "+" or " "; empty when not a text update
	Action domain.Action
}

// buildPreviews renders text diffs for body and comment updates.
func buildPreviews(plan *domain.Plan, edited, base *domain.Issue) []ActionPreview {
	previews := make([]ActionPreview, 0, len(plan.Actions))
	for _, a := range plan.Actions {
		p := ActionPreview{Action: a}
		switch a.Kind {
		case domain.ActionUpdateIssueBody:
			if old := baseNode(edited, base, a.Path); old != nil {
				p.Diff = lineDiff(old.Body(), a.Text)
			}
		case domain.ActionUpdateComment:
			if old := baseNode(edited, base, a.Path); old != nil {
				for _, c := range old.UserComments() {
					if id, ok := c.Identity.LinkedID(); ok && id == a.CommentID {
						p.Diff = lineDiff(c.Text, a.Text)
						break
					}
				}
			}
		case domain.ActionCreateComment, domain.ActionCreateIssue:
			p.Diff = lineDiff("", a.Text)
		}
		previews = append(previews, p)
	}
	return previews
}

// baseNode returns the snapshot node matching the edited node at path.
func baseNode(edited, base *domain.Issue, path domain.Path) *domain.Issue {
	if base == nil {
		return nil
	}
	node := edited.At(path)
	if node == nil {
		return nil
	}
	return base.Find(node.Meta.Identity)
}

// lineDiff computes a line-level diff between two texts.
func lineDiff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
