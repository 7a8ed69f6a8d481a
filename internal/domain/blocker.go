package domain

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Ordinal positions a blocker item: an integer group with an optional letter branch.
// "3" is the blocking item of group 3; "3.a" and "3.b" are non-blocking branches beside it.
type Ordinal struct {
	Group  int
	Branch byte // 'a'..'z', 0 when absent
}

var (
	ordinalPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)(?:\.([a-z]))?$`)
	itemPattern    = regexp.MustCompile(`^(0|[1-9][0-9]*)(?:\.([a-z]))?(\.)? (.*)$`)
	afterPattern   = regexp.MustCompile(`^\(after ([^()]+)\) (.*)$`)
)

const doneMarker = "[x] "

// ParseOrdinal parses "N" or "N.x".
func ParseOrdinal(s string) (Ordinal, bool) {
	m := ordinalPattern.FindStringSubmatch(s)
	if m == nil {
		return Ordinal{}, false
	}
	return newOrdinal(m[1], m[2])
}

func newOrdinal(group, branch string) (Ordinal, bool) {
	n, err := strconv.Atoi(group)
	if err != nil {
		return Ordinal{}, false
	}
	o := Ordinal{Group: n}
	if branch != "" {
		o.Branch = branch[0]
	}
	return o, true
}

func (o Ordinal) String() string {
	if o.Branch == 0 {
		return strconv.Itoa(o.Group)
	}
	return strconv.Itoa(o.Group) + "." + string(o.Branch)
}

// Compare orders ordinals by group, then branch, with the bare group first.
func (o Ordinal) Compare(other Ordinal) int {
	if c := cmp.Compare(o.Group, other.Group); c != 0 {
		return c
	}
	return cmp.Compare(o.Branch, other.Branch)
}

// BlockerItem is one step of a blocker sequence.
// Fields are ordered to minimize memory padding.
type BlockerItem struct {
	Description string
	After       []Ordinal // Prerequisites that must be done first
	Nested      []string  // Continuation lines, kept verbatim
	Ordinal     Ordinal
	Terminated  bool // Ordinal written with a trailing dot ("1." rather than "1")
	Done        bool
}

// Blocking reports whether the item blocks later groups.
// Items without a letter branch are blocking.
func (b BlockerItem) Blocking() bool {
	return b.Ordinal.Branch == 0
}

// Line renders the item's first line.
func (b BlockerItem) Line() string {
	var sb strings.Builder
	sb.WriteString(b.Ordinal.String())
	if b.Terminated {
		sb.WriteByte('.')
	}
	sb.WriteByte(' ')
	if b.Done {
		sb.WriteString(doneMarker)
	}
	if len(b.After) > 0 {
		sb.WriteString("(after ")
		sb.WriteString(joinOrdinals(b.After))
		sb.WriteString(") ")
	}
	sb.WriteString(b.Description)
	return sb.String()
}

func joinOrdinals(ords []Ordinal) string {
	parts := make([]string, len(ords))
	for i, o := range ords {
		parts[i] = o.String()
	}
	return strings.Join(parts, ", ")
}

// parseItemLine parses a single item line. Lines that do not carry a
// well-formed ordinal followed by a dot or letter branch are not items.
func parseItemLine(line string) (BlockerItem, bool) {
	m := itemPattern.FindStringSubmatch(line)
	if m == nil {
		return BlockerItem{}, false
	}
	if m[2] == "" && m[3] == "" {
		return BlockerItem{}, false
	}
	ord, ok := newOrdinal(m[1], m[2])
	if !ok {
		return BlockerItem{}, false
	}
	item := BlockerItem{Ordinal: ord, Terminated: m[3] != ""}
	rest := m[4]
	if strings.HasPrefix(rest, doneMarker) {
		item.Done = true
		rest = rest[len(doneMarker):]
	}
	if am := afterPattern.FindStringSubmatch(rest); am != nil {
		if after, ok := parseAfterList(am[1]); ok {
			item.After = after
			rest = am[2]
		}
	}
	item.Description = rest
	return item, true
}

// parseAfterList accepts only the canonical "1, 2.a" form so that
// anything else stays in the description and round-trips untouched.
func parseAfterList(s string) ([]Ordinal, bool) {
	parts := strings.Split(s, ", ")
	out := make([]Ordinal, 0, len(parts))
	for _, p := range parts {
		o, ok := ParseOrdinal(p)
		if !ok {
			return nil, false
		}
		out = append(out, o)
	}
	return out, true
}

func isSectionLine(line string) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return true
	}
	_, ok := parseItemLine(line)
	return ok
}

// BlockerSequence is the ordered list of blocker items embedded at the end of an issue body.
type BlockerSequence struct {
	Items []BlockerItem
}

// IsEmpty reports whether the sequence has no items.
func (s BlockerSequence) IsEmpty() bool {
	return len(s.Items) == 0
}

// String serializes the sequence, one item per line followed by its nested lines.
func (s BlockerSequence) String() string {
	lines := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, item.Line())
		lines = append(lines, item.Nested...)
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy.
func (s BlockerSequence) Clone() BlockerSequence {
	if s.Items == nil {
		return BlockerSequence{}
	}
	items := make([]BlockerItem, len(s.Items))
	for i, item := range s.Items {
		item.After = slices.Clone(item.After)
		item.Nested = slices.Clone(item.Nested)
		items[i] = item
	}
	return BlockerSequence{Items: items}
}

// SplitBody separates an issue body into free text and its trailing blocker sequence.
//
// The blocker section is the longest suffix of the body made only of item lines,
// indented lines and blank lines, starting at its first item line. Everything
// before it is free text. No line is ever dropped: a line that does not parse
// as an item stays in the free text or in the preceding item's nested lines.
func SplitBody(body string) (string, BlockerSequence) {
	lines := strings.Split(body, "\n")

	start := len(lines)
	for start > 0 && isSectionLine(lines[start-1]) {
		start--
	}

	first := -1
	for i := start; i < len(lines); i++ {
		if _, ok := parseItemLine(lines[i]); ok {
			first = i
			break
		}
	}
	// A lone empty line before the section cannot be told apart from
	// the separator JoinBody writes, so keep such a body as free text.
	if first < 0 || (first == 1 && lines[0] == "") {
		return body, BlockerSequence{}
	}

	var seq BlockerSequence
	for _, line := range lines[first:] {
		if item, ok := parseItemLine(line); ok {
			seq.Items = append(seq.Items, item)
			continue
		}
		last := &seq.Items[len(seq.Items)-1]
		last.Nested = append(last.Nested, line)
	}
	return strings.Join(lines[:first], "\n"), seq
}

// JoinBody is the inverse of SplitBody.
func JoinBody(free string, seq BlockerSequence) string {
	if seq.IsEmpty() {
		return free
	}
	if free == "" {
		return seq.String()
	}
	return free + "\n" + seq.String()
}

// order returns item indices in traversal order: by ordinal, ties kept in physical order.
func (s BlockerSequence) order() []int {
	idx := make([]int, len(s.Items))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return s.Items[a].Ordinal.Compare(s.Items[b].Ordinal)
	})
	return idx
}

// Ordered returns the items in traversal order.
func (s BlockerSequence) Ordered() []BlockerItem {
	out := make([]BlockerItem, 0, len(s.Items))
	for _, i := range s.order() {
		out = append(out, s.Items[i])
	}
	return out
}

// doneByOrdinal reports, per ordinal, whether every item carrying it is done.
func (s BlockerSequence) doneByOrdinal() map[Ordinal]bool {
	done := make(map[Ordinal]bool, len(s.Items))
	for _, item := range s.Items {
		prev, seen := done[item.Ordinal]
		done[item.Ordinal] = item.Done && (!seen || prev)
	}
	return done
}

func (s BlockerSequence) currentIndex() int {
	done := s.doneByOrdinal()
	for _, i := range s.order() {
		item := s.Items[i]
		if !item.Blocking() || item.Done {
			continue
		}
		ready := true
		for _, pre := range item.After {
			// Unknown prerequisites assume no blocking relation.
			if d, ok := done[pre]; ok && !d {
				ready = false
				break
			}
		}
		if ready {
			return i
		}
	}
	return -1
}

// Current returns the top of the blocker stack: the first blocking item in
// traversal order that is not done and whose prerequisites are all done.
func (s BlockerSequence) Current() (BlockerItem, bool) {
	i := s.currentIndex()
	if i < 0 {
		return BlockerItem{}, false
	}
	return s.Items[i], true
}

// Add appends a new blocking item in the next free group and returns it.
func (s *BlockerSequence) Add(description string) BlockerItem {
	next := 1
	for _, item := range s.Items {
		if item.Ordinal.Group >= next {
			next = item.Ordinal.Group + 1
		}
	}
	item := BlockerItem{
		Ordinal:     Ordinal{Group: next},
		Terminated:  true,
		Description: description,
	}
	s.Items = append(s.Items, item)
	return item
}

// Pop marks the current item done and returns it.
func (s *BlockerSequence) Pop() (BlockerItem, error) {
	i := s.currentIndex()
	if i < 0 {
		return BlockerItem{}, ErrNoBlockers
	}
	s.Items[i].Done = true
	return s.Items[i], nil
}

// Warnings reports non-fatal problems with the sequence's ordinals.
func (s BlockerSequence) Warnings() []string {
	var warnings []string
	seen := make(map[Ordinal]bool, len(s.Items))
	hasBlocking := make(map[int]bool)
	for _, item := range s.Items {
		ord := item.Ordinal
		switch {
		case item.Blocking():
			if hasBlocking[ord.Group] && len(item.After) == 0 {
				warnings = append(warnings, fmt.Sprintf("%s: more than one blocking item in group %d without prerequisites", ord, ord.Group))
			}
			hasBlocking[ord.Group] = true
		case !hasBlocking[ord.Group]:
			warnings = append(warnings, fmt.Sprintf("%s: no earlier blocking item in group %d", ord, ord.Group))
		case seen[ord]:
			warnings = append(warnings, fmt.Sprintf("%s: duplicate ordinal", ord))
		}
		seen[ord] = true
	}
	for _, item := range s.Items {
		for _, pre := range item.After {
			if !seen[pre] {
				warnings = append(warnings, fmt.Sprintf("%s: unknown prerequisite %s", item.Ordinal, pre))
			}
		}
	}
	return warnings
}
