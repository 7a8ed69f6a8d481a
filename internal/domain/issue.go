// Package domain contains core business entities and interfaces.
package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// IssueMeta holds an issue's identity and headline fields.
// Fields are ordered to minimize memory padding.
type IssueMeta struct {
	Title      string
	Author     string
	Identity   IssueIdentity
	CloseState CloseState
	Owned      bool // Author is the current user
}

// Comment is an entry in an issue's comment list.
// Index 0 of Issue.Comments is always the issue body.
type Comment struct {
	Author   string
	Text     string
	Identity CommentIdentity
}

// Issue is a node of the issue tree.
// Fields are ordered to minimize memory padding.
type Issue struct {
	LastContentsChange *time.Time // Remote updated_at at ingest time
	Warning            string     // Set on stubs for branches that failed to ingest
	Meta               IssueMeta
	Labels             []string // Sorted, no duplicates
	Comments           []Comment
	Children           []Issue
	Blockers           BlockerSequence
}

// NewIssue returns an issue with the given meta and body text.
func NewIssue(meta IssueMeta, body string) Issue {
	issue := Issue{Meta: meta}
	issue.SetBody(body)
	return issue
}

// ensureBody guarantees Comments[0] is the body entry.
func (i *Issue) ensureBody() {
	if len(i.Comments) == 0 || i.Comments[0].Identity.Kind != CommentBody {
		i.Comments = append([]Comment{{Identity: BodyComment(), Author: i.Meta.Author}}, i.Comments...)
	}
}

// FreeText returns the body text without the blocker section.
func (i *Issue) FreeText() string {
	if len(i.Comments) == 0 {
		return ""
	}
	return i.Comments[0].Text
}

// Body returns the body text with the blocker sequence re-embedded.
func (i *Issue) Body() string {
	return JoinBody(i.FreeText(), i.Blockers)
}

// SetBody replaces the body, splitting it into free text and blockers.
func (i *Issue) SetBody(body string) {
	i.ensureBody()
	free, seq := SplitBody(body)
	i.Comments[0].Text = free
	i.Blockers = seq
}

// UserComments returns the comments after the body.
func (i *Issue) UserComments() []Comment {
	if len(i.Comments) <= 1 {
		return nil
	}
	return i.Comments[1:]
}

// SetLabels stores labels as a sorted set.
func (i *Issue) SetLabels(labels []string) {
	i.Labels = NormalizeLabels(labels)
}

// NormalizeLabels sorts and deduplicates labels, dropping empty ones.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Path addresses a node by child indices from the root. The root is the empty path.
type Path []int

func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// ParsePath parses "root" or dot-separated child indices such as "0.2".
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "root" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	out := make(Path, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrPathNotFound, s)
		}
		out[i] = n
	}
	return out, nil
}

// Child returns the path of the n-th child.
func (p Path) Child(n int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, n)
}

// HasPrefix reports whether prefix is p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	return len(prefix) <= len(p) && slices.Equal(p[:len(prefix)], prefix)
}

// FlatIssue pairs a node with its path.
type FlatIssue struct {
	Issue *Issue
	Path  Path
}

// Flatten returns every node in pre-order with its path.
func (i *Issue) Flatten() []FlatIssue {
	var out []FlatIssue
	var walk func(node *Issue, path Path)
	walk = func(node *Issue, path Path) {
		out = append(out, FlatIssue{Issue: node, Path: path})
		for n := range node.Children {
			walk(&node.Children[n], path.Child(n))
		}
	}
	walk(i, Path{})
	return out
}

// Find returns the node with the given Linked identity, or nil.
// Pending identities never match.
func (i *Issue) Find(id IssueIdentity) *Issue {
	if id.IsPending() {
		return nil
	}
	if i.Meta.Identity.Equal(id) {
		return i
	}
	for n := range i.Children {
		if found := i.Children[n].Find(id); found != nil {
			return found
		}
	}
	return nil
}

// FindPath returns the path of the node with the given Linked identity.
func (i *Issue) FindPath(id IssueIdentity) (Path, bool) {
	for _, f := range i.Flatten() {
		if !id.IsPending() && f.Issue.Meta.Identity.Equal(id) {
			return f.Path, true
		}
	}
	return nil, false
}

// At returns the node at path, or nil.
func (i *Issue) At(path Path) *Issue {
	node := i
	for _, n := range path {
		if n < 0 || n >= len(node.Children) {
			return nil
		}
		node = &node.Children[n]
	}
	return node
}

// Clone returns a deep copy of the tree.
func (i *Issue) Clone() Issue {
	out := *i
	if i.LastContentsChange != nil {
		t := *i.LastContentsChange
		out.LastContentsChange = &t
	}
	out.Labels = slices.Clone(i.Labels)
	out.Comments = slices.Clone(i.Comments)
	out.Blockers = i.Blockers.Clone()
	if i.Children != nil {
		out.Children = make([]Issue, len(i.Children))
		for n := range i.Children {
			out.Children[n] = i.Children[n].Clone()
		}
	}
	return out
}

// Titles returns the titles from the root down to path.
func (i *Issue) Titles(path Path) []string {
	titles := []string{i.Meta.Title}
	node := i
	for _, n := range path {
		if n < 0 || n >= len(node.Children) {
			break
		}
		node = &node.Children[n]
		titles = append(titles, node.Meta.Title)
	}
	return titles
}
