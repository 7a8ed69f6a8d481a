package usecase

import (
	"context"

	"github.com/runoshun/issuetree/internal/domain"
)

// IssueNode is one row of an issue outline.
// Fields are ordered to minimize memory padding.
type IssueNode struct {
	Current  *domain.BlockerItem // nil when nothing is actionable
	Title    string
	Identity string
	Warning  string
	Path     domain.Path
	Depth    int
	Blockers int
	Done     int
	Comments int // User comments, not counting the body
	Closed   bool
}

// ShowIssueOutput contains the outline of a local issue file.
type ShowIssueOutput struct {
	File  string
	Nodes []IssueNode // Pre-order
}

// ShowIssue renders the tree of a local issue file as an outline.
type ShowIssue struct {
	local localIssue
}

// NewShowIssue creates a new ShowIssue use case.
func NewShowIssue(files domain.IssueFileStore) *ShowIssue {
	return &ShowIssue{local: localIssue{files: files}}
}

// Execute reads the file and flattens the subtree at in.Path.
func (uc *ShowIssue) Execute(_ context.Context, in BlockerTarget) (*ShowIssueOutput, error) {
	file, root, err := uc.local.load(in)
	if err != nil {
		return nil, err
	}
	start, err := uc.local.node(&root, in.Path)
	if err != nil {
		return nil, err
	}

	flat := start.Flatten()
	out := &ShowIssueOutput{File: file, Nodes: make([]IssueNode, 0, len(flat))}
	for _, f := range flat {
		issue := f.Issue
		node := IssueNode{
			Title:    issue.Meta.Title,
			Identity: issue.Meta.Identity.String(),
			Warning:  issue.Warning,
			Path:     append(append(domain.Path{}, in.Path...), f.Path...),
			Depth:    len(f.Path),
			Blockers: len(issue.Blockers.Items),
			Comments: len(issue.UserComments()),
			Closed:   !issue.Meta.CloseState.IsOpen(),
		}
		for _, item := range issue.Blockers.Items {
			if item.Done {
				node.Done++
			}
		}
		if item, ok := issue.Blockers.Current(); ok {
			node.Current = &item
		}
		out.Nodes = append(out.Nodes, node)
	}
	return out, nil
}
