package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrdinal(t *testing.T) {
	tests := []struct {
		in   string
		want Ordinal
		ok   bool
	}{
		{in: "1", want: Ordinal{Group: 1}, ok: true},
		{in: "12.c", want: Ordinal{Group: 12, Branch: 'c'}, ok: true},
		{in: "0", want: Ordinal{Group: 0}, ok: true},
		{in: "01"},
		{in: "1.A"},
		{in: "1.ab"},
		{in: "a"},
		{in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrdinal(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}

func TestOrdinal_Compare(t *testing.T) {
	two := Ordinal{Group: 2}
	twoA := Ordinal{Group: 2, Branch: 'a'}
	twoB := Ordinal{Group: 2, Branch: 'b'}
	three := Ordinal{Group: 3}

	assert.Negative(t, two.Compare(twoA))
	assert.Negative(t, twoA.Compare(twoB))
	assert.Negative(t, twoB.Compare(three))
	assert.Zero(t, twoA.Compare(twoA))
	assert.Positive(t, three.Compare(two))
}

func TestSplitBody_Scenario(t *testing.T) {
	body := "do X\n1. setup\n2.a config\n2.b docs"

	free, seq := SplitBody(body)

	assert.Equal(t, "do X", free)
	require.Len(t, seq.Items, 3)
	assert.Equal(t, BlockerItem{Ordinal: Ordinal{Group: 1}, Terminated: true, Description: "setup"}, seq.Items[0])
	assert.Equal(t, BlockerItem{Ordinal: Ordinal{Group: 2, Branch: 'a'}, Description: "config"}, seq.Items[1])
	assert.Equal(t, BlockerItem{Ordinal: Ordinal{Group: 2, Branch: 'b'}, Description: "docs"}, seq.Items[2])
	assert.True(t, seq.Items[0].Blocking())
	assert.False(t, seq.Items[1].Blocking())
	assert.False(t, seq.Items[2].Blocking())

	assert.Equal(t, body, JoinBody(free, seq))

	// Group 2 has only letter branches.
	assert.Len(t, seq.Warnings(), 2)

	current, ok := seq.Current()
	require.True(t, ok)
	assert.Equal(t, "setup", current.Description)
}

func TestSplitBody_RoundTrip(t *testing.T) {
	bodies := map[string]string{
		"free text only":        "Just a description.\nWith two lines.",
		"empty":                 "",
		"blockers only":         "1. a\n2. b",
		"trailing newline":      "1. a\n",
		"blank lines in list":   "Intro\n\n1. a\n\n2. b",
		"indented continuation": "Intro\n1. setup\n   indented detail\n\t tabbed\n2. next",
		"indented free text":    "Intro\n  indented\n1. a",
		"leading blank line":    "\n1. a",
		"done and prerequisite": "x\n1. [x] a\n2. b\n3. (after 1, 2) c",
		"malformed ordinals":    "Intro\n1x. not an item\n1 no dot\n1.A upper",
		"list in the middle":    "Steps:\n1. one\n2. two\nThen prose.",
		"zero group":            "0. warmup\n1. go",
		"after kept verbatim":   "1. (after one) text",
		"carriage return":       "a\r\n1. b",
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			free, seq := SplitBody(body)
			assert.Equal(t, body, JoinBody(free, seq))
		})
	}
}

func TestSplitBody_NeverDropsLines(t *testing.T) {
	free, seq := SplitBody("Intro\n1x. not an item\n1 no dot")
	assert.Equal(t, "Intro\n1x. not an item\n1 no dot", free)
	assert.True(t, seq.IsEmpty())

	free, seq = SplitBody("Steps:\n1. one\nThen prose.")
	assert.Equal(t, "Steps:\n1. one\nThen prose.", free)
	assert.True(t, seq.IsEmpty())
}

func TestSplitBody_Nested(t *testing.T) {
	_, seq := SplitBody("Intro\n1. setup\n   indented detail\n\t tabbed\n2. next")

	require.Len(t, seq.Items, 2)
	assert.Equal(t, []string{"   indented detail", "\t tabbed"}, seq.Items[0].Nested)
	assert.Nil(t, seq.Items[1].Nested)
}

func TestSplitBody_ParsesItemFields(t *testing.T) {
	_, seq := SplitBody("1. [x] (after 2.a, 3) ship it")

	require.Len(t, seq.Items, 1)
	item := seq.Items[0]
	assert.True(t, item.Done)
	assert.Equal(t, []Ordinal{{Group: 2, Branch: 'a'}, {Group: 3}}, item.After)
	assert.Equal(t, "ship it", item.Description)
	assert.Equal(t, "1. [x] (after 2.a, 3) ship it", item.Line())
}

func TestJoinBody_SerializeThenParse(t *testing.T) {
	seq := BlockerSequence{Items: []BlockerItem{
		{Ordinal: Ordinal{Group: 1}, Terminated: true, Description: "setup", Done: true},
		{Ordinal: Ordinal{Group: 2}, Terminated: true, Description: "build"},
		{Ordinal: Ordinal{Group: 2, Branch: 'a'}, Description: "config", Nested: []string{"  - yaml"}},
		{Ordinal: Ordinal{Group: 2, Branch: 'b'}, Description: "docs"},
		{Ordinal: Ordinal{Group: 3}, Terminated: true, Description: "release", After: []Ordinal{{Group: 1}, {Group: 2}}},
	}}

	free, got := SplitBody(JoinBody("do X", seq))

	assert.Equal(t, "do X", free)
	assert.Equal(t, seq, got)
}

func TestBlockerSequence_Current(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{name: "first open blocking", body: "1. a\n2. b", want: "a", wantOK: true},
		{name: "skips done", body: "1. [x] a\n2. b", want: "b", wantOK: true},
		{name: "skips non-blocking", body: "1. [x] a\n1.a side\n2. b", want: "b", wantOK: true},
		{name: "physical order ignored", body: "2. b\n1. a", want: "a", wantOK: true},
		{name: "all done", body: "1. [x] a\n2. [x] b"},
		{name: "empty"},
		{name: "prerequisites pending", body: "1. [x] a\n2.a side\n3. (after 2.a) c"},
		{name: "prerequisites done", body: "1. [x] a\n2.a [x] side\n3. (after 2.a) c", want: "c", wantOK: true},
		{name: "multiple prerequisites", body: "1. [x] a\n2. b\n3. (after 1, 2) c", want: "b", wantOK: true},
		{name: "multiple prerequisites done", body: "1. [x] a\n2. [x] b\n3. (after 1, 2) c", want: "c", wantOK: true},
		{name: "unknown prerequisite", body: "1. (after 9) go", want: "go", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, seq := SplitBody(tt.body)
			got, ok := seq.Current()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Description)
		})
	}
}

func TestBlockerSequence_AddAndPop(t *testing.T) {
	_, seq := SplitBody("1. a\n2.a side")

	item := seq.Add("c")
	assert.Equal(t, Ordinal{Group: 3}, item.Ordinal)
	assert.Equal(t, "1. a\n2.a side\n3. c", seq.String())

	done, err := seq.Pop()
	require.NoError(t, err)
	assert.Equal(t, "a", done.Description)

	done, err = seq.Pop()
	require.NoError(t, err)
	assert.Equal(t, "c", done.Description)

	_, err = seq.Pop()
	assert.ErrorIs(t, err, ErrNoBlockers)
	assert.Equal(t, "1. [x] a\n2.a side\n3. [x] c", seq.String())
}

func TestBlockerSequence_AddToEmpty(t *testing.T) {
	var seq BlockerSequence
	item := seq.Add("first")
	assert.Equal(t, "1. first", item.Line())
}

func TestBlockerSequence_Warnings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "clean", body: "1. a\n1.a b\n2. c"},
		{name: "orphan branch", body: "1.a b", want: []string{"1.a: no earlier blocking item in group 1"}},
		{name: "two blocking", body: "1. a\n1. b", want: []string{"1: more than one blocking item in group 1 without prerequisites"}},
		{name: "two blocking with prerequisite", body: "1. a\n1. (after 1.a) b\n1.a c"},
		{name: "duplicate branch", body: "1. a\n1.a b\n1.a c", want: []string{"1.a: duplicate ordinal"}},
		{name: "unknown prerequisite", body: "1. (after 4) a", want: []string{"1: unknown prerequisite 4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, seq := SplitBody(tt.body)
			assert.Equal(t, tt.want, seq.Warnings())
		})
	}
}

func TestBlockerSequence_Clone(t *testing.T) {
	_, seq := SplitBody("1. (after 2) a\n   nested")
	clone := seq.Clone()

	clone.Items[0].After[0] = Ordinal{Group: 9}
	clone.Items[0].Nested[0] = "changed"

	assert.Equal(t, Ordinal{Group: 2}, seq.Items[0].After[0])
	assert.Equal(t, "   nested", seq.Items[0].Nested[0])
}
