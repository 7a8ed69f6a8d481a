package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/testutil"
)

var (
	testRepo     = domain.RepoRef{Owner: "acme", Name: "app"}
	testRepoLink = domain.IssueLink{Owner: "acme", Repo: "app"}
	testNow      = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

// seededTree holds the links created by seedTree.
type seededTree struct {
	root, a, b, c domain.IssueLink
	bobComment    int64
	aliceComment  int64
}

// seedTree seeds root(1) -> [a(2) -> [c(3)], b(4)]. The root has a blocker
// list and one comment each by bob and alice; c is authored by bob and b
// is closed.
func seedTree(tracker *testutil.FakeTracker) seededTree {
	var s seededTree
	s.root = tracker.Seed(domain.RemoteIssue{Link: testRepoLink, Title: "root", Body: "do X\n1. setup\n2. ship", Author: "alice"}, nil)
	s.a = tracker.Seed(domain.RemoteIssue{Link: testRepoLink, Title: "a", Body: "a body", Author: "alice"}, &s.root)
	s.c = tracker.Seed(domain.RemoteIssue{Link: testRepoLink, Title: "c", Author: "bob"}, &s.a)
	s.b = tracker.Seed(domain.RemoteIssue{
		Link:        testRepoLink,
		Title:       "b",
		Author:      "alice",
		State:       domain.RemoteStateClosed,
		StateReason: string(domain.CloseReasonCompleted),
	}, &s.root)
	s.bobComment = tracker.SeedComment(s.root, "bob", "hi")
	s.aliceComment = tracker.SeedComment(s.root, "alice", "mine")
	return s
}

func newTestIngest(tracker *testutil.FakeTracker) *IngestIssue {
	return NewIngestIssue(tracker, &testutil.MockLogger{}, 2)
}

func testSyncConfig() domain.SyncConfig {
	return domain.SyncConfig{Concurrency: 2, Retries: 2, RetryWait: "100ms"}
}

// ingestTree returns the tree rooted at link as alice sees it.
func ingestTree(t *testing.T, tracker *testutil.FakeTracker, link domain.IssueLink) domain.Issue {
	t.Helper()
	out, err := newTestIngest(tracker).Execute(context.Background(), IngestIssueInput{Link: link, CurrentUser: "alice"})
	require.NoError(t, err)
	return out.Issue
}

// saveSnapshot stores the current remote tree as the snapshot and returns its text.
func saveSnapshot(t *testing.T, tracker *testutil.FakeTracker, snapshots *testutil.MockSnapshotStore, link domain.IssueLink) string {
	t.Helper()
	tree := ingestTree(t, tracker, link)
	snap, err := domain.NewSnapshot(&tree, testNow)
	require.NoError(t, err)
	require.NoError(t, snapshots.Save(snap))
	return snap.Content
}

// editFile returns an editor rewrite that applies edit to the parsed tree.
func editFile(t *testing.T, edit func(*domain.Issue)) func(string) string {
	t.Helper()
	return func(content string) string {
		issue, err := domain.LoadLocal(content)
		require.NoError(t, err)
		edit(&issue)
		return domain.SerializeIssue(&issue)
	}
}

// syncFixture wires the file-level use cases against one fake tracker.
type syncFixture struct {
	tracker   *testutil.FakeTracker
	snapshots *testutil.MockSnapshotStore
	files     *testutil.MockFileStore
	logger    *testutil.MockLogger
	sleeper   *testutil.MockSleeper
	ingest    *IngestIssue
	pull      *PullIssue
	sync      *SyncIssue
	tree      seededTree
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		tracker:   testutil.NewFakeTracker("alice"),
		snapshots: testutil.NewMockSnapshotStore(),
		files:     testutil.NewMockFileStore(),
		logger:    &testutil.MockLogger{},
		sleeper:   &testutil.MockSleeper{},
	}
	f.tree = seedTree(f.tracker)
	clock := &testutil.MockClock{NowTime: testNow}
	f.ingest = NewIngestIssue(f.tracker, f.logger, 2)
	push := NewPushIssue(f.tracker, f.logger, f.sleeper, testSyncConfig())
	f.pull = NewPullIssue(f.ingest, f.snapshots, f.files, clock)
	f.sync = NewSyncIssue(f.ingest, push, f.snapshots, f.files, clock, f.logger)
	return f
}

// pulled pulls the seeded root and returns the local file path.
func (f *syncFixture) pulled(t *testing.T) string {
	t.Helper()
	out, err := f.pull.Execute(context.Background(), PullIssueInput{Link: f.tree.root, CurrentUser: "alice"})
	require.NoError(t, err)
	return out.Path
}

// editLocal rewrites the local file of the seeded root.
func (f *syncFixture) editLocal(t *testing.T, edit func(*domain.Issue)) {
	t.Helper()
	path := f.files.Path(f.tree.root)
	content, err := f.files.Read(path)
	require.NoError(t, err)
	require.NoError(t, f.files.Write(path, editFile(t, edit)(content)))
}

// localTree parses the local file at path.
func (f *syncFixture) localTree(t *testing.T, path string) domain.Issue {
	t.Helper()
	content, err := f.files.Read(path)
	require.NoError(t, err)
	issue, err := domain.LoadLocal(content)
	require.NoError(t, err)
	return issue
}

// snapshotTree parses the stored snapshot of link.
func (f *syncFixture) snapshotTree(t *testing.T, link domain.IssueLink) domain.Issue {
	t.Helper()
	snap, err := f.snapshots.Load(link)
	require.NoError(t, err)
	issue, err := snap.Issue()
	require.NoError(t, err)
	return issue
}
