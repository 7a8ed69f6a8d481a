package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/testutil"
)

var errServer = errors.New("HTTP 502")

func newTestPush(tracker *testutil.FakeTracker) (*PushIssue, *testutil.MockSleeper) {
	sleeper := &testutil.MockSleeper{}
	return NewPushIssue(tracker, &testutil.MockLogger{}, sleeper, testSyncConfig()), sleeper
}

// pushEdit ingests the seeded tree, applies edit to a copy and pushes it.
func pushEdit(t *testing.T, tracker *testutil.FakeTracker, root domain.IssueLink, edit func(*domain.Issue)) (*PushIssueOutput, *domain.Issue, *testutil.MockSleeper, error) {
	t.Helper()
	base := ingestTree(t, tracker, root)
	edited := base.Clone()
	edit(&edited)

	uc, sleeper := newTestPush(tracker)
	out, err := uc.Execute(context.Background(), PushIssueInput{
		Edited:      &edited,
		Base:        &base,
		CurrentUser: "alice",
	})
	return out, &edited, sleeper, err
}

func TestPushIssue_Execute_Success(t *testing.T) {
	// Setup
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)

	// Execute
	out, edited, sleeper, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		i.Meta.Title = "root v2"
		i.Children[0].Children[0].Meta.CloseState = domain.ClosedState(domain.CloseReasonNotPlanned)
		child := domain.NewIssue(domain.IssueMeta{Title: "new step", Identity: domain.PendingIssue()}, "details")
		child.Comments = append(child.Comments, domain.Comment{Text: "first note", Identity: domain.PendingComment()})
		i.Children[0].Children = append(i.Children[0].Children, child)
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.True(t, out.Result.OK())
	assert.Empty(t, sleeper.Waits)

	remoteRoot, _ := tracker.Issue(s.root)
	assert.Equal(t, "root v2", remoteRoot.Title)
	remoteC, _ := tracker.Issue(s.c)
	assert.Equal(t, domain.RemoteStateClosed, remoteC.State)
	assert.Equal(t, "not_planned", remoteC.StateReason)

	newLink := testRepoLink.WithNumber(5)
	created, ok := tracker.Issue(newLink)
	require.True(t, ok)
	assert.Equal(t, "new step", created.Title)
	assert.Equal(t, "details", created.Body)
	assert.Equal(t, []domain.IssueLink{s.c, newLink}, tracker.SubIssues(s.a))

	// Created identities are written back into the edited tree.
	node := edited.Children[0].Children[1]
	assert.Equal(t, domain.LinkedIssue(newLink), node.Meta.Identity)
	assert.Equal(t, "alice", node.Meta.Author)
	assert.True(t, node.Meta.Owned)
	comments := tracker.Comments(newLink)
	require.Len(t, comments, 1)
	assert.Equal(t, domain.LinkedComment(comments[0].ID), node.Comments[1].Identity)
	assert.Equal(t, "alice", node.Comments[1].Author)
}

func TestPushIssue_Execute_NothingToDo(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)

	out, _, _, err := pushEdit(t, tracker, s.root, func(*domain.Issue) {})

	require.NoError(t, err)
	assert.True(t, out.Plan.IsEmpty())
	assert.Nil(t, out.Result)
}

func TestPushIssue_Execute_DryRun(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	base := ingestTree(t, tracker, s.root)
	edited := base.Clone()
	edited.Meta.Title = "changed"
	tracker.Calls = nil

	uc, _ := newTestPush(tracker)
	out, err := uc.Execute(context.Background(), PushIssueInput{Edited: &edited, Base: &base, CurrentUser: "alice", DryRun: true})

	require.NoError(t, err)
	assert.Len(t, out.Plan.Actions, 1)
	assert.Nil(t, out.Result)
	assert.Empty(t, tracker.Calls)
}

func TestPushIssue_Execute_RetriesIdempotentAction(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	tracker.Fail[testutil.IssueKey("UpdateIssueBody", s.root)] = &testutil.FailRule{Err: errServer, Times: 1}

	out, _, sleeper, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		i.SetBody("do Y\n1. setup\n2. ship")
	})

	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, sleeper.Waits)
	remote, _ := tracker.Issue(s.root)
	assert.Equal(t, "do Y\n1. setup\n2. ship", remote.Body)
}

func TestPushIssue_Execute_PartialFailure(t *testing.T) {
	// Setup: every update of a fails.
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	tracker.Fail[testutil.IssueKey("UpdateIssueMeta", s.a)] = &testutil.FailRule{Err: errServer}

	// Execute
	out, _, sleeper, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		i.Children[0].Meta.Title = "a v2"
		i.Children[0].Children[0].Meta.Title = "c v2"
		i.Children[1].Meta.Title = "b v2"
	})

	// Assert
	require.NoError(t, err)
	result := out.Result
	assert.False(t, result.OK())

	require.Len(t, result.Failed, 1)
	assert.Equal(t, domain.Path{0}, result.Failed[0].Action.Path)
	assert.ErrorIs(t, result.Failed[0].Err, domain.ErrRemoteActionFailed)
	assert.ErrorIs(t, result.Failed[0].Err, errServer)
	assert.Equal(t, []domain.Path{{0}}, result.FailedPaths)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, domain.Path{0, 0}, result.Skipped[0].Path)

	require.Len(t, result.Applied, 1)
	assert.Equal(t, domain.Path{1}, result.Applied[0].Path)
	assert.Equal(t, []domain.Path{{1}}, result.Succeeded)

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.Waits)
	remoteC, _ := tracker.Issue(s.c)
	assert.Equal(t, "c", remoteC.Title)
	remoteB, _ := tracker.Issue(s.b)
	assert.Equal(t, "b v2", remoteB.Title)
}

func TestPushIssue_Execute_RootFailureBlocksTree(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	tracker.Fail[testutil.IssueKey("UpdateIssueMeta", s.root)] = &testutil.FailRule{
		Err: fmt.Errorf("gone: %w", domain.ErrRemoteNotFound),
	}

	out, _, sleeper, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		i.Meta.Title = "root v2"
		i.Children[1].Meta.Title = "b v2"
	})

	require.NoError(t, err)
	assert.Len(t, out.Result.Failed, 1)
	assert.Len(t, out.Result.Skipped, 1)
	assert.Empty(t, out.Result.Applied)
	assert.Empty(t, sleeper.Waits, "not-found is not retried")
}

func TestPushIssue_Execute_StaleBase(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	base := ingestTree(t, tracker, s.root)
	tracker.Touch(s.a)

	edited := base.Clone()
	edited.Children[0].Meta.Title = "a v2"
	uc, _ := newTestPush(tracker)

	// Execute
	_, err := uc.Execute(context.Background(), PushIssueInput{Edited: &edited, Base: &base, CurrentUser: "alice"})

	// Assert
	var stale *domain.StaleBaseError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, s.a, stale.Link)
	assert.ErrorIs(t, err, domain.ErrStaleBase)
	remote, _ := tracker.Issue(s.a)
	assert.Equal(t, "a", remote.Title, "nothing is applied")

	// Force skips the check.
	out, err := uc.Execute(context.Background(), PushIssueInput{Edited: &edited, Base: &base, CurrentUser: "alice", Force: true})
	require.NoError(t, err)
	assert.True(t, out.Result.OK())
}

func TestPushIssue_Execute_StaleUntouchedNodeIgnored(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	base := ingestTree(t, tracker, s.root)
	tracker.Touch(s.b)

	edited := base.Clone()
	edited.Children[0].Meta.Title = "a v2"
	uc, _ := newTestPush(tracker)

	out, err := uc.Execute(context.Background(), PushIssueInput{Edited: &edited, Base: &base, CurrentUser: "alice"})

	require.NoError(t, err)
	assert.True(t, out.Result.OK())
}

func TestPushIssue_Execute_VanishedIssue(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	base := ingestTree(t, tracker, s.root)
	tracker.Fail[testutil.IssueKey("FetchIssue", s.b)] = &testutil.FailRule{Err: fmt.Errorf("b: %w", domain.ErrRemoteNotFound)}

	edited := base.Clone()
	edited.Children[1].Meta.Title = "b v2"
	uc, _ := newTestPush(tracker)

	_, err := uc.Execute(context.Background(), PushIssueInput{Edited: &edited, Base: &base, CurrentUser: "alice"})

	var mismatch *domain.IdentityMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, s.b, mismatch.Link)
	assert.Equal(t, domain.Path{1}, mismatch.Path)
}

func TestPushIssue_Execute_AdoptsLostCreate(t *testing.T) {
	// Setup: the first create succeeds remotely but its response is lost.
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	tracker.Fail["CreateIssue"] = &testutil.FailRule{Err: errServer, Times: 1, AfterApply: true}

	// Execute
	out, edited, sleeper, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		i.Children = append(i.Children, domain.NewIssue(domain.IssueMeta{Title: "new", Identity: domain.PendingIssue()}, "text"))
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	assert.Equal(t, 5, tracker.Count(), "no duplicate issue")
	assert.Empty(t, sleeper.Waits)
	newLink := testRepoLink.WithNumber(5)
	assert.Equal(t, domain.LinkedIssue(newLink), edited.Children[2].Meta.Identity)
	assert.Equal(t, []domain.IssueLink{s.a, s.b, newLink}, tracker.SubIssues(s.root))
}

func TestPushIssue_Execute_RetriesFailedCreate(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	tracker.Fail["CreateIssue"] = &testutil.FailRule{Err: errServer, Times: 1}

	out, _, sleeper, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		i.Children = append(i.Children, domain.NewIssue(domain.IssueMeta{Title: "new", Identity: domain.PendingIssue()}, ""))
	})

	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	assert.Equal(t, 5, tracker.Count())
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, sleeper.Waits)
}

// closedChild appends a new not_planned child to the root.
func closedChild(i *domain.Issue) {
	child := domain.NewIssue(domain.IssueMeta{
		Title:      "new",
		Identity:   domain.PendingIssue(),
		CloseState: domain.ClosedState(domain.CloseReasonNotPlanned),
	}, "text")
	i.Children = append(i.Children, child)
}

func TestPushIssue_Execute_CreatedIssueCloseFails(t *testing.T) {
	// Setup: the issue is created but closing it keeps failing.
	tracker := testutil.NewFakeTracker("alice")
	tracker.TwoStepClose = true
	s := seedTree(tracker)
	tracker.Fail["UpdateIssueState"] = &testutil.FailRule{Err: errServer}

	// Execute
	out, edited, sleeper, err := pushEdit(t, tracker, s.root, closedChild)

	// Assert
	require.NoError(t, err)
	assert.False(t, out.Result.OK())
	require.Len(t, out.Result.Failed, 1)
	assert.Equal(t, domain.ActionCreateIssue, out.Result.Failed[0].Action.Kind)
	assert.ErrorIs(t, out.Result.Failed[0].Err, errServer)
	assert.Equal(t, 5, tracker.Count(), "no duplicate issue")

	newLink := testRepoLink.WithNumber(5)
	assert.Equal(t, domain.LinkedIssue(newLink), edited.Children[2].Meta.Identity)
	remote, ok := tracker.Issue(newLink)
	require.True(t, ok)
	assert.Equal(t, domain.RemoteStateOpen, remote.State)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.Waits)
}

func TestPushIssue_Execute_CreatedIssueCloseRetried(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	tracker.TwoStepClose = true
	s := seedTree(tracker)
	tracker.Fail["UpdateIssueState"] = &testutil.FailRule{Err: errServer, Times: 1}

	out, edited, _, err := pushEdit(t, tracker, s.root, closedChild)

	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	assert.Equal(t, 5, tracker.Count())
	newLink := testRepoLink.WithNumber(5)
	assert.Equal(t, domain.LinkedIssue(newLink), edited.Children[2].Meta.Identity)
	remote, _ := tracker.Issue(newLink)
	state, _ := domain.CloseStateFromRemote(remote.State, remote.StateReason)
	assert.Equal(t, domain.ClosedState(domain.CloseReasonNotPlanned), state)
}

func TestPushIssue_Execute_AdoptedCreateGetsState(t *testing.T) {
	// Setup: the create lands open and its response is lost before the close.
	tracker := testutil.NewFakeTracker("alice")
	tracker.TwoStepClose = true
	s := seedTree(tracker)
	tracker.Fail["CreateIssue"] = &testutil.FailRule{Err: errServer, Times: 1, AfterApply: true}

	// Execute
	out, edited, _, err := pushEdit(t, tracker, s.root, closedChild)

	// Assert
	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	assert.Equal(t, 5, tracker.Count(), "no duplicate issue")
	newLink := testRepoLink.WithNumber(5)
	assert.Equal(t, domain.LinkedIssue(newLink), edited.Children[2].Meta.Identity)
	remote, _ := tracker.Issue(newLink)
	state, _ := domain.CloseStateFromRemote(remote.State, remote.StateReason)
	assert.Equal(t, domain.ClosedState(domain.CloseReasonNotPlanned), state)
	assert.Contains(t, tracker.Calls, testutil.IssueKey("UpdateIssueState", newLink))
}

func TestPushIssue_Execute_AdoptsLostComment(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	tracker.Fail["CreateComment"] = &testutil.FailRule{Err: errServer, Times: 1, AfterApply: true}

	out, edited, _, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		i.Comments = append(i.Comments, domain.Comment{Text: "mine"})
		i.Comments[3].Identity = domain.PendingComment()
	})

	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	comments := tracker.Comments(s.root)
	require.Len(t, comments, 3, "no duplicate comment")
	assert.Equal(t, domain.LinkedComment(comments[2].ID), edited.Comments[3].Identity)
	assert.NotEqual(t, s.aliceComment, comments[2].ID, "an existing comment with the same text is not adopted")
}

func TestPushIssue_Execute_FailedCreateSkipsSubtree(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)
	tracker.Fail["CreateIssue"] = &testutil.FailRule{Err: fmt.Errorf("repo: %w", domain.ErrRemoteNotFound)}

	out, edited, _, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		parent := domain.NewIssue(domain.IssueMeta{Title: "p", Identity: domain.PendingIssue()}, "")
		parent.Children = []domain.Issue{domain.NewIssue(domain.IssueMeta{Title: "q", Identity: domain.PendingIssue()}, "")}
		i.Children = append(i.Children, parent)
	})

	require.NoError(t, err)
	require.Len(t, out.Result.Failed, 1)
	assert.Len(t, out.Result.Skipped, 3)
	assert.True(t, edited.Children[2].Meta.Identity.IsPending())
	assert.Equal(t, 4, tracker.Count())
}

func TestPushIssue_Execute_PendingRoot(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	root := domain.NewIssue(domain.IssueMeta{Title: "plan", Identity: domain.PendingIssue()}, "1. first")
	root.Children = []domain.Issue{domain.NewIssue(domain.IssueMeta{Title: "step", Identity: domain.PendingIssue()}, "")}
	uc, _ := newTestPush(tracker)

	// Without a repository.
	edited := root.Clone()
	_, err := uc.Execute(context.Background(), PushIssueInput{Edited: &edited, CurrentUser: "alice"})
	assert.ErrorIs(t, err, domain.ErrInvalidLink)
	assert.Equal(t, 0, tracker.Count())

	// With a repository.
	edited = root.Clone()
	out, err := uc.Execute(context.Background(), PushIssueInput{Edited: &edited, CurrentUser: "alice", Repo: testRepo})
	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	rootLink := testRepoLink.WithNumber(1)
	assert.Equal(t, domain.LinkedIssue(rootLink), edited.Meta.Identity)
	assert.Equal(t, []domain.IssueLink{testRepoLink.WithNumber(2)}, tracker.SubIssues(rootLink))
}

func TestPushIssue_Execute_ReparentAndRemove(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)

	out, _, _, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		c := i.Children[0].Children[0]
		i.Children[0].Children = nil
		i.Children[1].Children = []domain.Issue{c}
		i.Children = i.Children[1:]
	})

	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	assert.Equal(t, []domain.IssueLink{s.b}, tracker.SubIssues(s.root))
	assert.Equal(t, []domain.IssueLink{s.c}, tracker.SubIssues(s.b))
	assert.Empty(t, tracker.SubIssues(s.a))
}

func TestPushIssue_Execute_ForeignCommentUntouched(t *testing.T) {
	tracker := testutil.NewFakeTracker("alice")
	s := seedTree(tracker)

	out, _, _, err := pushEdit(t, tracker, s.root, func(i *domain.Issue) {
		i.Comments[1].Text = "rewritten"
	})

	require.NoError(t, err)
	assert.True(t, out.Plan.IsEmpty())
	assert.Len(t, out.Plan.Warnings, 1)
	assert.Equal(t, "hi", tracker.Comments(s.root)[0].Body)
}
