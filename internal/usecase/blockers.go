package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/issuetree/internal/domain"
)

// BlockerTarget selects an issue node inside a local file.
type BlockerTarget struct {
	File string           // Local file; defaults to the file of Link
	Link domain.IssueLink // Root issue
	Path domain.Path      // Node inside the tree; nil for the root
}

// localIssue loads and stores the tree of a local issue file.
type localIssue struct {
	files domain.IssueFileStore
}

func (l localIssue) resolve(t BlockerTarget) (string, error) {
	if t.File != "" {
		return t.File, nil
	}
	if t.Link == (domain.IssueLink{}) {
		return "", fmt.Errorf("no file or issue given: %w", domain.ErrInvalidLink)
	}
	return l.files.Path(t.Link), nil
}

func (l localIssue) load(t BlockerTarget) (string, domain.Issue, error) {
	path, err := l.resolve(t)
	if err != nil {
		return "", domain.Issue{}, err
	}
	content, err := l.files.Read(path)
	if err != nil {
		return "", domain.Issue{}, fmt.Errorf("read issue file: %w", err)
	}
	issue, err := domain.LoadLocal(content)
	if err != nil {
		return "", domain.Issue{}, fmt.Errorf("%s: %w", path, err)
	}
	return path, issue, nil
}

func (l localIssue) node(root *domain.Issue, path domain.Path) (*domain.Issue, error) {
	node := root.At(path)
	if node == nil {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrPathNotFound)
	}
	return node, nil
}

func (l localIssue) save(path string, root *domain.Issue) error {
	if err := l.files.Write(path, domain.SerializeIssue(root)); err != nil {
		return fmt.Errorf("write issue file: %w", err)
	}
	return nil
}

// ListBlockersOutput contains the blocker sequence of one node.
type ListBlockersOutput struct {
	Current  *domain.BlockerItem // nil when nothing is actionable
	Title    string
	Items    []domain.BlockerItem // In file order
	Warnings []string
}

// ListBlockers shows the blocker sequence of an issue node.
type ListBlockers struct {
	local localIssue
}

// NewListBlockers creates a new ListBlockers use case.
func NewListBlockers(files domain.IssueFileStore) *ListBlockers {
	return &ListBlockers{local: localIssue{files: files}}
}

// Execute reads the node's blockers.
func (uc *ListBlockers) Execute(_ context.Context, in BlockerTarget) (*ListBlockersOutput, error) {
	_, root, err := uc.local.load(in)
	if err != nil {
		return nil, err
	}
	node, err := uc.local.node(&root, in.Path)
	if err != nil {
		return nil, err
	}

	out := &ListBlockersOutput{
		Title:    node.Meta.Title,
		Items:    node.Blockers.Items,
		Warnings: node.Blockers.Warnings(),
	}
	if item, ok := node.Blockers.Current(); ok {
		out.Current = &item
	}
	return out, nil
}

// CurrentBlockerOutput contains the first actionable blocker of a subtree.
type CurrentBlockerOutput struct {
	Titles []string // Issue titles from the root to the owning node
	Path   domain.Path
	Item   domain.BlockerItem
}

// Context renders the item prefixed by the titles of the issues that own it.
func (o *CurrentBlockerOutput) Context() string {
	parts := append(append([]string{}, o.Titles...), o.Item.Description)
	return strings.Join(parts, ": ")
}

// CurrentBlocker finds what to work on next.
type CurrentBlocker struct {
	local localIssue
}

// NewCurrentBlocker creates a new CurrentBlocker use case.
func NewCurrentBlocker(files domain.IssueFileStore) *CurrentBlocker {
	return &CurrentBlocker{local: localIssue{files: files}}
}

// Execute walks the subtree at in.Path in pre-order and returns the first
// open issue's actionable blocker. Returns ErrNoBlockers if there is none.
func (uc *CurrentBlocker) Execute(_ context.Context, in BlockerTarget) (*CurrentBlockerOutput, error) {
	_, root, err := uc.local.load(in)
	if err != nil {
		return nil, err
	}
	start, err := uc.local.node(&root, in.Path)
	if err != nil {
		return nil, err
	}

	for _, flat := range start.Flatten() {
		if !flat.Issue.Meta.CloseState.IsOpen() {
			continue
		}
		item, ok := flat.Issue.Blockers.Current()
		if !ok {
			continue
		}
		path := append(append(domain.Path{}, in.Path...), flat.Path...)
		return &CurrentBlockerOutput{
			Titles: root.Titles(path),
			Path:   path,
			Item:   item,
		}, nil
	}
	return nil, domain.ErrNoBlockers
}

// AddBlockerInput contains the parameters for adding a blocker.
type AddBlockerInput struct {
	Description string
	Target      BlockerTarget
}

// AddBlockerOutput contains the added item.
type AddBlockerOutput struct {
	Item domain.BlockerItem
}

// AddBlocker appends a blocking item to an issue node.
type AddBlocker struct {
	local localIssue
}

// NewAddBlocker creates a new AddBlocker use case.
func NewAddBlocker(files domain.IssueFileStore) *AddBlocker {
	return &AddBlocker{local: localIssue{files: files}}
}

// Execute adds the item and rewrites the local file. The change reaches
// the tracker on the next push.
func (uc *AddBlocker) Execute(_ context.Context, in AddBlockerInput) (*AddBlockerOutput, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" || strings.Contains(desc, "\n") {
		return nil, fmt.Errorf("blocker description must be a single non-empty line")
	}

	path, root, err := uc.local.load(in.Target)
	if err != nil {
		return nil, err
	}
	node, err := uc.local.node(&root, in.Target.Path)
	if err != nil {
		return nil, err
	}

	item := node.Blockers.Add(desc)
	if err := uc.local.save(path, &root); err != nil {
		return nil, err
	}
	return &AddBlockerOutput{Item: item}, nil
}

// PopBlockerOutput contains the completed item and what comes next.
type PopBlockerOutput struct {
	Next *domain.BlockerItem // nil when the sequence is finished
	Done domain.BlockerItem
}

// PopBlocker marks the current blocker of an issue node done.
type PopBlocker struct {
	local localIssue
}

// NewPopBlocker creates a new PopBlocker use case.
func NewPopBlocker(files domain.IssueFileStore) *PopBlocker {
	return &PopBlocker{local: localIssue{files: files}}
}

// Execute pops the node's current item and rewrites the local file.
func (uc *PopBlocker) Execute(_ context.Context, in BlockerTarget) (*PopBlockerOutput, error) {
	path, root, err := uc.local.load(in)
	if err != nil {
		return nil, err
	}
	node, err := uc.local.node(&root, in.Path)
	if err != nil {
		return nil, err
	}

	done, err := node.Blockers.Pop()
	if err != nil {
		return nil, err
	}
	if err := uc.local.save(path, &root); err != nil {
		return nil, err
	}

	out := &PopBlockerOutput{Done: done}
	if next, ok := node.Blockers.Current(); ok {
		out.Next = &next
	}
	return out, nil
}
