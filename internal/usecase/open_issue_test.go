package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/testutil"
)

func newTestOpen(f *syncFixture, editor *testutil.MockEditor) *OpenIssue {
	editor.Files = f.files
	return NewOpenIssue(f.pull, f.sync, f.snapshots, f.files, editor, f.logger)
}

func TestOpenIssue_Execute_Online(t *testing.T) {
	// Setup
	f := newSyncFixture()
	editor := &testutil.MockEditor{}
	editor.Rewrite = editFile(t, func(i *domain.Issue) {
		i.Children[1].Meta.CloseState = domain.OpenState()
	})
	uc := newTestOpen(f, editor)

	// Execute
	out, err := uc.Execute(context.Background(), OpenIssueInput{Link: f.tree.root, CurrentUser: "alice"})

	// Assert
	require.NoError(t, err)
	assert.False(t, out.Resumed)
	assert.Equal(t, []string{"/ws/issues/acme/app/1.md"}, editor.Paths)
	require.NotNil(t, out.Sync)
	assert.True(t, out.Sync.Result.OK())
	remote, _ := f.tracker.Issue(f.tree.b)
	assert.Equal(t, domain.RemoteStateOpen, remote.State)
}

func TestOpenIssue_Execute_NoChanges(t *testing.T) {
	f := newSyncFixture()
	editor := &testutil.MockEditor{}
	uc := newTestOpen(f, editor)

	out, err := uc.Execute(context.Background(), OpenIssueInput{Link: f.tree.root, CurrentUser: "alice"})

	require.NoError(t, err)
	assert.True(t, out.Sync.Plan.IsEmpty())
	assert.Nil(t, out.Sync.Result)
}

func TestOpenIssue_Execute_ResumesUnpushedEdits(t *testing.T) {
	// Setup: an earlier cycle left a local edit behind.
	f := newSyncFixture()
	f.pulled(t)
	f.editLocal(t, func(i *domain.Issue) { i.Meta.Title = "from last time" })
	editor := &testutil.MockEditor{}
	uc := newTestOpen(f, editor)

	// Execute
	out, err := uc.Execute(context.Background(), OpenIssueInput{Link: f.tree.root, CurrentUser: "alice"})

	// Assert
	require.NoError(t, err)
	assert.True(t, out.Resumed)
	assert.Len(t, editor.Paths, 1)
	remote, _ := f.tracker.Issue(f.tree.root)
	assert.Equal(t, "from last time", remote.Title)
}

func TestOpenIssue_Execute_Offline(t *testing.T) {
	// Setup: the local file is gone but the snapshot is cached.
	f := newSyncFixture()
	path := f.pulled(t)
	delete(f.files.Files, path)
	f.tracker.Calls = nil
	editor := &testutil.MockEditor{}
	editor.Rewrite = editFile(t, func(i *domain.Issue) { i.Meta.Title = "offline edit" })
	uc := newTestOpen(f, editor)

	// Execute
	out, err := uc.Execute(context.Background(), OpenIssueInput{Link: f.tree.root, Offline: true})

	// Assert
	require.NoError(t, err)
	assert.Nil(t, out.Sync)
	assert.Empty(t, f.tracker.Calls)
	assert.Equal(t, "offline edit", f.localTree(t, path).Meta.Title)
}

func TestOpenIssue_Execute_OfflineWithoutSnapshot(t *testing.T) {
	f := newSyncFixture()
	editor := &testutil.MockEditor{}
	uc := newTestOpen(f, editor)

	_, err := uc.Execute(context.Background(), OpenIssueInput{Link: f.tree.root, Offline: true})

	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	assert.Empty(t, editor.Paths)
}

func TestOpenIssue_Execute_EditorFails(t *testing.T) {
	f := newSyncFixture()
	editor := &testutil.MockEditor{Err: errors.New("exit status 1")}
	uc := newTestOpen(f, editor)
	f.tracker.Calls = nil

	_, err := uc.Execute(context.Background(), OpenIssueInput{Link: f.tree.root, CurrentUser: "alice"})

	assert.Error(t, err)
	for _, call := range f.tracker.Calls {
		assert.NotContains(t, call, "Update")
	}
}

func TestOpenIssue_Execute_PushErrorKeepsFile(t *testing.T) {
	f := newSyncFixture()
	editor := &testutil.MockEditor{}
	editor.Rewrite = editFile(t, func(i *domain.Issue) {
		i.Meta.Title = "mine"
		f.tracker.Touch(f.tree.root)
	})
	uc := newTestOpen(f, editor)

	out, err := uc.Execute(context.Background(), OpenIssueInput{Link: f.tree.root, CurrentUser: "alice"})

	assert.ErrorIs(t, err, domain.ErrStaleBase)
	require.NotNil(t, out)
	assert.Equal(t, "mine", f.localTree(t, out.Path).Meta.Title)
}
