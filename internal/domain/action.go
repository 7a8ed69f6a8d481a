package domain

import (
	"fmt"
	"strings"
)

// ActionKind identifies a remote mutation.
type ActionKind string

// Remote mutation kinds.
const (
	ActionUpdateIssueState ActionKind = "update_issue_state"
	ActionUpdateIssueMeta  ActionKind = "update_issue_meta"
	ActionUpdateIssueBody  ActionKind = "update_issue_body"
	ActionCreateComment    ActionKind = "create_comment"
	ActionUpdateComment    ActionKind = "update_comment"
	ActionDeleteComment    ActionKind = "delete_comment"
	ActionCreateIssue      ActionKind = "create_issue"
	ActionAddSubIssue      ActionKind = "add_sub_issue"
	ActionRemoveSubIssue   ActionKind = "remove_sub_issue"
)

// Idempotent reports whether repeating the action cannot create duplicates.
func (k ActionKind) Idempotent() bool {
	return k != ActionCreateIssue && k != ActionCreateComment
}

// Action is one remote mutation. Nodes are addressed by their path in the
// edited tree; remote identities are resolved when the action runs, so
// actions may target issues created earlier in the same plan.
// Fields are ordered to minimize memory padding.
type Action struct {
	Title        string // CreateIssue, UpdateIssueMeta
	Text         string // Body or comment text
	Kind         ActionKind
	Labels       []string   // CreateIssue, UpdateIssueMeta
	Path         Path       // Target node; for sub-issue actions the child
	ParentPath   Path       // CreateIssue, AddSubIssue, RemoveSubIssue
	Child        IssueLink  // RemoveSubIssue
	State        CloseState // UpdateIssueState, CreateIssue
	CommentIndex int        // CreateComment, UpdateComment: index in Issue.Comments
	CommentID    int64      // UpdateComment, DeleteComment
	Replace      bool       // AddSubIssue: move the child away from its current parent
}

// Subtree returns the path whose failure this action depends on.
func (a Action) Subtree() Path {
	switch a.Kind {
	case ActionRemoveSubIssue:
		return a.ParentPath
	default:
		return a.Path
	}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionUpdateIssueState:
		return fmt.Sprintf("%s %s -> %s", a.Kind, a.Path, a.State)
	case ActionUpdateIssueMeta:
		return fmt.Sprintf("%s %s title=%q labels=[%s]", a.Kind, a.Path, a.Title, strings.Join(a.Labels, ", "))
	case ActionCreateComment:
		return fmt.Sprintf("%s %s #%d", a.Kind, a.Path, a.CommentIndex)
	case ActionUpdateComment, ActionDeleteComment:
		return fmt.Sprintf("%s %s id=%d", a.Kind, a.Path, a.CommentID)
	case ActionCreateIssue:
		return fmt.Sprintf("%s %s %q", a.Kind, a.Path, a.Title)
	case ActionAddSubIssue:
		if a.Replace {
			return fmt.Sprintf("%s %s <- %s (move)", a.Kind, a.ParentPath, a.Path)
		}
		return fmt.Sprintf("%s %s <- %s", a.Kind, a.ParentPath, a.Path)
	case ActionRemoveSubIssue:
		return fmt.Sprintf("%s %s -/- %s", a.Kind, a.ParentPath, a.Child)
	default:
		return fmt.Sprintf("%s %s", a.Kind, a.Path)
	}
}

// Plan is the ordered list of actions that makes the remote match the edited tree.
type Plan struct {
	Actions  []Action
	Warnings []string
}

// IsEmpty reports whether there is nothing to push.
func (p *Plan) IsEmpty() bool {
	return len(p.Actions) == 0
}

// TouchedPaths returns the distinct node paths the plan mutates, in plan order.
func (p *Plan) TouchedPaths() []Path {
	seen := make(map[string]bool)
	var out []Path
	add := func(path Path) {
		if path == nil || seen[path.String()] {
			return
		}
		seen[path.String()] = true
		out = append(out, path)
	}
	for _, a := range p.Actions {
		switch a.Kind {
		case ActionCreateIssue:
			add(a.ParentPath)
		case ActionAddSubIssue:
			add(a.ParentPath)
			add(a.Path)
		case ActionRemoveSubIssue:
			add(a.ParentPath)
		default:
			add(a.Path)
		}
	}
	return out
}
