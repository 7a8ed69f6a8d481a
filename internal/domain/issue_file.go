package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Local issue file format:
//
//	---
//	title: Root issue
//	state: open
//	labels: [bug]
//	link: https://github.com/owner/repo/issues/1
//	---
//	Body free text.
//	1. first blocker
//
//	<!-- comment: 123 by alice -->
//	Comment text.
//
//	<!-- comment: new -->
//	A comment that will be created on push.
//
//	<!-- issue: depth 1 -->
//	---
//	title: Sub-issue
//	state: open
//	---
//	Sub-issue body.
//
// Every text block is followed by a newline, and a blank line separates
// blocks. Text lines that look like markers are escaped with a backslash.

var (
	issueMarkerPattern   = regexp.MustCompile(`^<!-- issue: depth ([1-9][0-9]*) -->$`)
	commentMarkerPattern = regexp.MustCompile(`^<!-- comment: (new|[1-9][0-9]*)(?: by (\S+))? -->$`)
	escapeNeededPattern  = regexp.MustCompile(`^\\*<!-- (?:issue|comment):`)
	escapedPattern       = regexp.MustCompile(`^\\+<!-- (?:issue|comment):`)
)

const frontmatterDelimiter = "---"

// issueHeader is the YAML preamble of each issue block.
type issueHeader struct {
	Title       string   `yaml:"title"`
	State       string   `yaml:"state"`
	StateReason string   `yaml:"state_reason,omitempty"`
	Labels      []string `yaml:"labels,flow,omitempty"`
	Link        string   `yaml:"link,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	UpdatedAt   string   `yaml:"updated_at,omitempty"`
	Warning     string   `yaml:"warning,omitempty"`
	Owned       bool     `yaml:"owned,omitempty"`
}

// SerializeIssue renders an issue tree in the local file format.
func SerializeIssue(issue *Issue) string {
	var sb strings.Builder
	writeIssue(&sb, issue, 0)
	return sb.String()
}

func writeIssue(sb *strings.Builder, issue *Issue, depth int) {
	if depth > 0 {
		fmt.Fprintf(sb, "\n<!-- issue: depth %d -->\n", depth)
	}
	sb.WriteString(frontmatterDelimiter + "\n")
	sb.WriteString(marshalHeader(issue))
	sb.WriteString(frontmatterDelimiter + "\n")
	writeText(sb, issue.Body())

	for _, c := range issue.UserComments() {
		sb.WriteString("\n")
		sb.WriteString(commentMarker(c))
		sb.WriteString("\n")
		writeText(sb, c.Text)
	}
	for n := range issue.Children {
		writeIssue(sb, &issue.Children[n], depth+1)
	}
}

func marshalHeader(issue *Issue) string {
	h := issueHeader{
		Title:   issue.Meta.Title,
		State:   issue.Meta.CloseState.RemoteState(),
		Labels:  issue.Labels,
		Author:  issue.Meta.Author,
		Owned:   issue.Meta.Owned,
		Warning: issue.Warning,
	}
	if !issue.Meta.CloseState.IsOpen() {
		h.StateReason = issue.Meta.CloseState.RemoteStateReason()
	}
	if link, ok := issue.Meta.Identity.Link(); ok {
		h.Link = link.URL()
	}
	if issue.LastContentsChange != nil {
		h.UpdatedAt = issue.LastContentsChange.UTC().Format(time.RFC3339Nano)
	}
	out, err := yaml.Marshal(&h)
	if err != nil {
		// issueHeader holds only strings and a bool.
		panic(fmt.Sprintf("marshal issue header: %v", err))
	}
	return string(out)
}

func commentMarker(c Comment) string {
	id, ok := c.Identity.LinkedID()
	if !ok {
		return "<!-- comment: new -->"
	}
	if c.Author == "" {
		return fmt.Sprintf("<!-- comment: %d -->", id)
	}
	return fmt.Sprintf("<!-- comment: %d by %s -->", id, c.Author)
}

func writeText(sb *strings.Builder, text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if escapeNeededPattern.MatchString(line) {
			lines[i] = `\` + line
		}
	}
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n")
}

// section is a run of lines introduced by a marker (or the start of the file).
type section struct {
	lines     []string
	author    string
	start     int // index of the first content line
	depth     int // issue depth; -1 for comments
	commentID int64
	isComment bool
}

// fileNode is an issue under construction while parsing.
type fileNode struct {
	issue    Issue
	children []*fileNode
}

// LoadLocal parses the local file format back into an issue tree.
func LoadLocal(content string) (Issue, error) {
	sections, err := splitSections(strings.Split(content, "\n"))
	if err != nil {
		return Issue{}, err
	}

	var stack []*fileNode
	var root *fileNode
	for _, s := range sections {
		if s.isComment {
			top := stack[len(stack)-1]
			c := Comment{Author: s.author, Text: joinText(s.lines), Identity: PendingComment()}
			if s.commentID > 0 {
				c.Identity = LinkedComment(s.commentID)
			}
			top.issue.Comments = append(top.issue.Comments, c)
			continue
		}

		if s.depth > len(stack) {
			return Issue{}, &ParseError{Line: s.start, Msg: fmt.Sprintf("sub-issue depth %d skips a level", s.depth)}
		}
		issue, err := parseIssueSection(s)
		if err != nil {
			return Issue{}, err
		}
		node := &fileNode{issue: issue}
		stack = stack[:s.depth]
		if s.depth == 0 {
			root = node
		} else {
			parent := stack[s.depth-1]
			parent.children = append(parent.children, node)
		}
		stack = append(stack, node)
	}
	return root.build(), nil
}

func (n *fileNode) build() Issue {
	issue := n.issue
	for _, c := range n.children {
		issue.Children = append(issue.Children, c.build())
	}
	return issue
}

func splitSections(lines []string) ([]section, error) {
	sections := []section{{depth: 0, start: 1}}
	for i, line := range lines {
		cur := &sections[len(sections)-1]
		if m := issueMarkerPattern.FindStringSubmatch(line); m != nil {
			depth, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, &ParseError{Line: i + 1, Msg: "invalid sub-issue depth"}
			}
			sections = append(sections, section{depth: depth, start: i + 2})
			continue
		}
		if m := commentMarkerPattern.FindStringSubmatch(line); m != nil {
			s := section{depth: -1, isComment: true, author: m[2], start: i + 2}
			if m[1] != "new" {
				id, err := strconv.ParseInt(m[1], 10, 64)
				if err != nil {
					return nil, &ParseError{Line: i + 1, Msg: "invalid comment id"}
				}
				s.commentID = id
			}
			sections = append(sections, s)
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	return sections, nil
}

func parseIssueSection(s section) (Issue, error) {
	if len(s.lines) == 0 || s.lines[0] != frontmatterDelimiter {
		return Issue{}, &ParseError{Line: s.start, Msg: "invalid frontmatter: missing opening ---"}
	}
	end := -1
	for i := 1; i < len(s.lines); i++ {
		if s.lines[i] == frontmatterDelimiter {
			end = i
			break
		}
	}
	if end < 0 {
		return Issue{}, &ParseError{Line: s.start, Msg: "invalid frontmatter: missing closing ---"}
	}

	var h issueHeader
	if err := yaml.Unmarshal([]byte(strings.Join(s.lines[1:end], "\n")), &h); err != nil {
		return Issue{}, &ParseError{Line: s.start + 1, Msg: fmt.Sprintf("invalid frontmatter: %v", err)}
	}
	meta, updatedAt, err := h.toMeta()
	if err != nil {
		return Issue{}, &ParseError{Line: s.start + 1, Msg: err.Error()}
	}

	issue := NewIssue(meta, joinText(s.lines[end+1:]))
	issue.SetLabels(h.Labels)
	issue.LastContentsChange = updatedAt
	issue.Warning = h.Warning
	return issue, nil
}

func (h issueHeader) toMeta() (IssueMeta, *time.Time, error) {
	title := strings.TrimSpace(h.Title)
	if title == "" {
		return IssueMeta{}, nil, ErrEmptyTitle
	}
	meta := IssueMeta{Title: h.Title, Author: h.Author, Owned: h.Owned}

	state := h.State
	if state == "" {
		state = RemoteStateOpen
	}
	cs, ok := CloseStateFromRemote(state, h.StateReason)
	if !ok {
		return IssueMeta{}, nil, fmt.Errorf("unknown state %q", h.State)
	}
	meta.CloseState = cs

	if h.Link != "" {
		link, err := ParseIssueLink(h.Link)
		if err != nil {
			return IssueMeta{}, nil, err
		}
		meta.Identity = LinkedIssue(link)
	}

	var updatedAt *time.Time
	if h.UpdatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, h.UpdatedAt)
		if err != nil {
			return IssueMeta{}, nil, fmt.Errorf("invalid updated_at %q", h.UpdatedAt)
		}
		t = t.UTC()
		updatedAt = &t
	}
	return meta, updatedAt, nil
}

// joinText undoes writeText: it drops the trailing separator line and unescapes markers.
func joinText(lines []string) string {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if escapedPattern.MatchString(line) {
			line = line[1:]
		}
		out[i] = line
	}
	return strings.Join(out, "\n")
}
