package domain

import (
	"fmt"
	"time"
)

// Snapshot is the last-synced copy of an issue tree, stored as its
// serialized local file text. Snapshots are replaced whole, never patched.
// Fields are ordered to minimize memory padding.
type Snapshot struct {
	SavedAt time.Time `json:"savedAt"`
	Content string    `json:"content"`
	Link    IssueLink `json:"-"` // Stored as the map key
}

// NewSnapshot captures a tree whose root is Linked.
func NewSnapshot(issue *Issue, at time.Time) (*Snapshot, error) {
	link, ok := issue.Meta.Identity.Link()
	if !ok {
		return nil, fmt.Errorf("snapshot of a pending issue: %w", ErrIdentityMismatch)
	}
	return &Snapshot{
		Link:    link,
		SavedAt: at,
		Content: SerializeIssue(issue),
	}, nil
}

// Issue parses the stored tree.
func (s *Snapshot) Issue() (Issue, error) {
	issue, err := LoadLocal(s.Content)
	if err != nil {
		return Issue{}, fmt.Errorf("snapshot %s: %w", s.Link, err)
	}
	return issue, nil
}

// SnapshotKey returns the store key of a root issue.
func SnapshotKey(link IssueLink) string {
	return link.String()
}
