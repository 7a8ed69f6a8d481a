package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ReconcileOptions tunes Reconcile.
type ReconcileOptions struct {
	// CurrentUser, when set, protects comments written by other users
	// from being updated or deleted.
	CurrentUser string
}

// baseEntry locates a node of the last-synced tree.
type baseEntry struct {
	issue *Issue
}

type reconciler struct {
	base        map[IssueLink]baseEntry
	editedLinks map[IssueLink]bool
	// comment ids linked anywhere in the edited tree
	editedComments map[int64]bool
	// comment id -> owning issue in the snapshot
	baseComments map[int64]IssueLink
	plan         *Plan
	opts         ReconcileOptions
}

// Reconcile computes the ordered actions that turn the remote tree recorded
// in base into edited. base may be nil only when the edited root is Pending.
//
// For each node the actions are ordered state/meta, body, comments, then
// children, so identities created by earlier actions are available to later
// ones. Linked nodes are matched by identity and Pending nodes always yield
// a create. Sibling order changes are not pushed.
func Reconcile(edited, base *Issue, opts ReconcileOptions) (*Plan, error) {
	r := &reconciler{
		base:           make(map[IssueLink]baseEntry),
		editedLinks:    make(map[IssueLink]bool),
		editedComments: make(map[int64]bool),
		baseComments:   make(map[int64]IssueLink),
		plan:           &Plan{},
		opts:           opts,
	}
	for _, f := range edited.Flatten() {
		if link, ok := f.Issue.Meta.Identity.Link(); ok {
			r.editedLinks[link] = true
		}
		for _, c := range f.Issue.UserComments() {
			if id, ok := c.Identity.LinkedID(); ok {
				r.editedComments[id] = true
			}
		}
	}

	rootLink, linked := edited.Meta.Identity.Link()
	if !linked {
		r.createNode(edited, Path{}, nil)
		return r.plan, nil
	}
	if base == nil {
		return nil, &IdentityMismatchError{Link: rootLink, Path: Path{}, Reason: "no snapshot for a linked root"}
	}
	baseLink, ok := base.Meta.Identity.Link()
	if !ok || baseLink != rootLink {
		return nil, &IdentityMismatchError{Link: rootLink, Path: Path{}, Reason: fmt.Sprintf("snapshot is for %s", base.Meta.Identity)}
	}

	for _, f := range base.Flatten() {
		link, ok := f.Issue.Meta.Identity.Link()
		if !ok {
			continue
		}
		r.base[link] = baseEntry{issue: f.Issue}
		for _, c := range f.Issue.UserComments() {
			if id, ok := c.Identity.LinkedID(); ok {
				r.baseComments[id] = link
			}
		}
	}
	r.diffNode(edited, base, Path{})
	return r.plan, nil
}

func (r *reconciler) emit(a Action) {
	r.plan.Actions = append(r.plan.Actions, a)
}

func (r *reconciler) warn(format string, args ...any) {
	r.plan.Warnings = append(r.plan.Warnings, fmt.Sprintf(format, args...))
}

func (r *reconciler) diffNode(edited, base *Issue, path Path) {
	if base.Warning != "" {
		r.warn("%s: %s was not fully pulled (%s); its changes are not pushed", path, base.Meta.Identity, base.Warning)
		r.diffChildren(edited, base, path)
		return
	}

	if edited.Meta.CloseState != base.Meta.CloseState {
		r.emit(Action{Kind: ActionUpdateIssueState, Path: path, State: edited.Meta.CloseState})
	}
	if edited.Meta.Title != base.Meta.Title || !slices.Equal(edited.Labels, base.Labels) {
		r.emit(Action{
			Kind:   ActionUpdateIssueMeta,
			Path:   path,
			Title:  edited.Meta.Title,
			Labels: slices.Clone(edited.Labels),
		})
	}
	if body := edited.Body(); body != base.Body() {
		r.emit(Action{Kind: ActionUpdateIssueBody, Path: path, Text: body})
	}
	r.diffComments(edited, base, path)
	r.diffChildren(edited, base, path)
}

func (r *reconciler) foreign(author string) bool {
	return r.opts.CurrentUser != "" && author != "" && author != r.opts.CurrentUser
}

func (r *reconciler) diffComments(edited, base *Issue, path Path) {
	baseByID := make(map[int64]Comment)
	for _, c := range base.UserComments() {
		if id, ok := c.Identity.LinkedID(); ok {
			baseByID[id] = c
		}
	}

	kept := make(map[int64]bool)
	for idx := 1; idx < len(edited.Comments); idx++ {
		c := edited.Comments[idx]
		switch c.Identity.Kind {
		case CommentPending:
			if strings.TrimSpace(c.Text) == "" {
				r.warn("%s: empty new comment #%d skipped", path, idx)
				continue
			}
			r.emit(Action{Kind: ActionCreateComment, Path: path, CommentIndex: idx, Text: c.Text})
		case CommentLinked:
			kept[c.Identity.ID] = true
			old, ok := baseByID[c.Identity.ID]
			if !ok {
				if from, moved := r.baseComments[c.Identity.ID]; moved {
					r.warn("%s: comment %d was moved from %s; moves are not pushed and it stays there", path, c.Identity.ID, from)
					continue
				}
				r.warn("%s: comment %d is not in the snapshot; left unchanged", path, c.Identity.ID)
				continue
			}
			if old.Text == c.Text {
				continue
			}
			if r.foreign(old.Author) {
				r.warn("%s: comment %d belongs to %s; edit skipped", path, c.Identity.ID, old.Author)
				continue
			}
			r.emit(Action{
				Kind:         ActionUpdateComment,
				Path:         path,
				CommentIndex: idx,
				CommentID:    c.Identity.ID,
				Text:         c.Text,
			})
		default:
			r.warn("%s: unexpected body entry at comment #%d", path, idx)
		}
	}

	for _, c := range base.UserComments() {
		id, ok := c.Identity.LinkedID()
		// still linked under another issue; warned where it now sits
		if !ok || kept[id] || r.editedComments[id] {
			continue
		}
		if r.foreign(c.Author) {
			r.warn("%s: comment %d belongs to %s; delete skipped", path, id, c.Author)
			continue
		}
		r.emit(Action{Kind: ActionDeleteComment, Path: path, CommentID: id})
	}
}

func (r *reconciler) diffChildren(edited, base *Issue, path Path) {
	for n := range edited.Children {
		child := &edited.Children[n]
		childPath := path.Child(n)
		link, linked := child.Meta.Identity.Link()
		if !linked {
			r.createNode(child, childPath, path)
			continue
		}
		if old := directChild(base, link); old != nil {
			r.diffNode(child, old, childPath)
			continue
		}
		r.adoptNode(child, childPath, path)
	}

	for n := range base.Children {
		link, ok := base.Children[n].Meta.Identity.Link()
		if !ok || r.editedLinks[link] {
			continue
		}
		r.emit(Action{Kind: ActionRemoveSubIssue, ParentPath: path, Child: link})
	}
}

// adoptNode handles a Linked node that is not a child of its parent in the snapshot.
func (r *reconciler) adoptNode(child *Issue, childPath, parentPath Path) {
	link, _ := child.Meta.Identity.Link()
	if entry, ok := r.base[link]; ok {
		r.diffNode(child, entry.issue, childPath)
	} else {
		r.warn("%s: %s is not in the snapshot; only attaching it", childPath, link)
	}
	r.emit(Action{Kind: ActionAddSubIssue, ParentPath: parentPath, Path: childPath, Replace: true})
}

// createNode emits the creation of a Pending node and its subtree.
// parentPath is nil for a Pending root.
func (r *reconciler) createNode(issue *Issue, path, parentPath Path) {
	r.emit(Action{
		Kind:       ActionCreateIssue,
		Path:       path,
		ParentPath: parentPath,
		Title:      issue.Meta.Title,
		Text:       issue.Body(),
		Labels:     slices.Clone(issue.Labels),
		State:      issue.Meta.CloseState,
	})

	for idx := 1; idx < len(issue.Comments); idx++ {
		c := issue.Comments[idx]
		if c.Identity.Kind != CommentPending {
			r.warn("%s: comment %s cannot move to a new issue; skipped", path, c.Identity)
			continue
		}
		if strings.TrimSpace(c.Text) == "" {
			r.warn("%s: empty new comment #%d skipped", path, idx)
			continue
		}
		r.emit(Action{Kind: ActionCreateComment, Path: path, CommentIndex: idx, Text: c.Text})
	}

	for n := range issue.Children {
		child := &issue.Children[n]
		childPath := path.Child(n)
		if child.Meta.Identity.IsPending() {
			r.createNode(child, childPath, path)
			continue
		}
		r.adoptNode(child, childPath, path)
	}

	if parentPath != nil {
		r.emit(Action{Kind: ActionAddSubIssue, ParentPath: parentPath, Path: path})
	}
}

func directChild(issue *Issue, link IssueLink) *Issue {
	for n := range issue.Children {
		if l, ok := issue.Children[n].Meta.Identity.Link(); ok && l == link {
			return &issue.Children[n]
		}
	}
	return nil
}
