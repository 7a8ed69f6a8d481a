package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IssueLink locates an issue on the remote tracker.
type IssueLink struct {
	Owner  string
	Repo   string
	Number int
}

var (
	issueURLPattern   = regexp.MustCompile(`^https?://github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)/issues/([1-9][0-9]*)/?$`)
	issueShortPattern = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)#([1-9][0-9]*)$`)
	repoPattern       = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)
)

// ParseIssueLink parses an issue URL or the short form "owner/repo#N".
func ParseIssueLink(s string) (IssueLink, error) {
	s = strings.TrimSpace(s)
	m := issueURLPattern.FindStringSubmatch(s)
	if m == nil {
		m = issueShortPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return IssueLink{}, fmt.Errorf("%w: %q", ErrInvalidLink, s)
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return IssueLink{}, fmt.Errorf("%w: %q", ErrInvalidLink, s)
	}
	return IssueLink{Owner: m[1], Repo: m[2], Number: n}, nil
}

// URL returns the web URL of the issue.
func (l IssueLink) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/issues/%d", l.Owner, l.Repo, l.Number)
}

// String returns the short form "owner/repo#N".
func (l IssueLink) String() string {
	return fmt.Sprintf("%s/%s#%d", l.Owner, l.Repo, l.Number)
}

// RepoRef returns the repository the issue lives in.
func (l IssueLink) RepoRef() RepoRef {
	return RepoRef{Owner: l.Owner, Name: l.Repo}
}

// WithNumber returns a link to another issue in the same repository.
func (l IssueLink) WithNumber(n int) IssueLink {
	l.Number = n
	return l
}

// RepoRef names a repository.
type RepoRef struct {
	Owner string
	Name  string
}

// ParseRepoRef parses "owner/repo".
func ParseRepoRef(s string) (RepoRef, error) {
	m := repoPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return RepoRef{}, fmt.Errorf("%w: repository %q", ErrInvalidLink, s)
	}
	return RepoRef{Owner: m[1], Name: m[2]}, nil
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// IsZero reports whether no repository is set.
func (r RepoRef) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// IssueIdentity anchors an issue to the remote side.
// The zero value is Pending: the issue exists only locally.
type IssueIdentity struct {
	link *IssueLink
}

// LinkedIssue returns an identity for an issue that exists remotely.
func LinkedIssue(link IssueLink) IssueIdentity {
	return IssueIdentity{link: &link}
}

// PendingIssue returns an identity for an issue not yet created remotely.
func PendingIssue() IssueIdentity {
	return IssueIdentity{}
}

// Link returns the remote link and true when the identity is Linked.
func (i IssueIdentity) Link() (IssueLink, bool) {
	if i.link == nil {
		return IssueLink{}, false
	}
	return *i.link, true
}

// IsPending reports whether the issue has no remote counterpart yet.
func (i IssueIdentity) IsPending() bool {
	return i.link == nil
}

// Equal reports whether both identities are Linked to the same issue.
// Pending identities are never equal to anything.
func (i IssueIdentity) Equal(other IssueIdentity) bool {
	a, ok := i.Link()
	if !ok {
		return false
	}
	b, ok := other.Link()
	return ok && a == b
}

func (i IssueIdentity) String() string {
	if l, ok := i.Link(); ok {
		return l.String()
	}
	return "pending"
}

// CommentKind tags a CommentIdentity.
type CommentKind int

// Comment identity kinds. The zero value is CommentPending.
const (
	CommentPending CommentKind = iota // Not yet created remotely
	CommentBody                       // The issue description itself
	CommentLinked                     // A remote comment with an ID
)

// CommentIdentity anchors a comment to the remote side.
type CommentIdentity struct {
	Kind CommentKind
	ID   int64 // Set only for CommentLinked
}

// BodyComment returns the identity of an issue's description.
func BodyComment() CommentIdentity {
	return CommentIdentity{Kind: CommentBody}
}

// LinkedComment returns the identity of an existing remote comment.
func LinkedComment(id int64) CommentIdentity {
	return CommentIdentity{Kind: CommentLinked, ID: id}
}

// PendingComment returns the identity of a comment not yet created remotely.
func PendingComment() CommentIdentity {
	return CommentIdentity{Kind: CommentPending}
}

// LinkedID returns the remote comment ID and true when the identity is Linked.
func (c CommentIdentity) LinkedID() (int64, bool) {
	if c.Kind != CommentLinked {
		return 0, false
	}
	return c.ID, true
}

func (c CommentIdentity) String() string {
	switch c.Kind {
	case CommentBody:
		return "body"
	case CommentLinked:
		return strconv.FormatInt(c.ID, 10)
	default:
		return "new"
	}
}
