package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkN(n int) IssueLink {
	return IssueLink{Owner: "acme", Repo: "app", Number: n}
}

// testTree builds root(1) -> [a(2) -> [c(4)], b(3)].
func testTree() Issue {
	c := NewIssue(IssueMeta{Title: "c", Identity: LinkedIssue(linkN(4))}, "")
	a := NewIssue(IssueMeta{Title: "a", Identity: LinkedIssue(linkN(2))}, "")
	a.Children = []Issue{c}
	b := NewIssue(IssueMeta{Title: "b", Identity: LinkedIssue(linkN(3))}, "")
	root := NewIssue(IssueMeta{Title: "root", Identity: LinkedIssue(linkN(1))}, "")
	root.Children = []Issue{a, b}
	return root
}

func TestIssue_Flatten(t *testing.T) {
	root := testTree()

	flat := root.Flatten()

	require.Len(t, flat, 4)
	var titles []string
	var paths []string
	for _, f := range flat {
		titles = append(titles, f.Issue.Meta.Title)
		paths = append(paths, f.Path.String())
	}
	assert.Equal(t, []string{"root", "a", "c", "b"}, titles)
	assert.Equal(t, []string{"root", "0", "0.0", "1"}, paths)

	// Stable under no-op edits.
	again := root.Clone()
	for i, f := range again.Flatten() {
		assert.Equal(t, flat[i].Path, f.Path)
	}
}

func TestIssue_FindAndAt(t *testing.T) {
	root := testTree()

	found := root.Find(LinkedIssue(linkN(4)))
	require.NotNil(t, found)
	assert.Equal(t, "c", found.Meta.Title)
	assert.Nil(t, root.Find(LinkedIssue(linkN(99))))
	assert.Nil(t, root.Find(PendingIssue()))

	path, ok := root.FindPath(LinkedIssue(linkN(3)))
	require.True(t, ok)
	assert.Equal(t, Path{1}, path)

	assert.Equal(t, "c", root.At(Path{0, 0}).Meta.Title)
	assert.Same(t, &root, root.At(Path{}))
	assert.Nil(t, root.At(Path{2}))
	assert.Nil(t, root.At(Path{-1}))
}

func TestIssue_Titles(t *testing.T) {
	root := testTree()
	assert.Equal(t, []string{"root", "a", "c"}, root.Titles(Path{0, 0}))
	assert.Equal(t, []string{"root"}, root.Titles(nil))
}

func TestIssue_Clone(t *testing.T) {
	root := testTree()
	root.SetLabels([]string{"x"})
	root.SetBody("text\n1. step")

	clone := root.Clone()
	clone.Children[0].Children[0].Meta.Title = "changed"
	clone.Labels[0] = "y"
	clone.Comments[0].Text = "other"
	clone.Blockers.Items[0].Description = "other"

	assert.Equal(t, "c", root.Children[0].Children[0].Meta.Title)
	assert.Equal(t, []string{"x"}, root.Labels)
	assert.Equal(t, "text\n1. step", root.Body())
}

func TestIssue_Body(t *testing.T) {
	issue := NewIssue(IssueMeta{Title: "t", Author: "alice"}, "do X\n1. setup\n2.a config\n2.b docs")

	require.Len(t, issue.Comments, 1)
	assert.Equal(t, BodyComment(), issue.Comments[0].Identity)
	assert.Equal(t, "alice", issue.Comments[0].Author)
	assert.Equal(t, "do X", issue.FreeText())
	assert.Len(t, issue.Blockers.Items, 3)
	assert.Equal(t, "do X\n1. setup\n2.a config\n2.b docs", issue.Body())
	assert.Nil(t, issue.UserComments())

	issue.SetBody("plain")
	assert.True(t, issue.Blockers.IsEmpty())
	assert.Equal(t, "plain", issue.Body())
}

func TestNormalizeLabels(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, NormalizeLabels([]string{"b", " a ", "", "b"}))
	assert.Nil(t, NormalizeLabels([]string{" "}))
	assert.Nil(t, NormalizeLabels(nil))
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    Path
		wantErr bool
	}{
		{in: "", want: Path{}},
		{in: "root", want: Path{}},
		{in: "0", want: Path{0}},
		{in: "1.0.2", want: Path{1, 0, 2}},
		{in: "a", wantErr: true},
		{in: "1.-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPathNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPath_HasPrefix(t *testing.T) {
	assert.True(t, Path{1, 2}.HasPrefix(Path{}))
	assert.True(t, Path{1, 2}.HasPrefix(Path{1}))
	assert.True(t, Path{1, 2}.HasPrefix(Path{1, 2}))
	assert.False(t, Path{1}.HasPrefix(Path{1, 2}))
	assert.False(t, Path{2, 1}.HasPrefix(Path{1}))
}
