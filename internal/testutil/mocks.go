// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/runoshun/issuetree/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockSleeper records requested waits without sleeping.
type MockSleeper struct {
	Waits []time.Duration
	mu    sync.Mutex
}

// Sleep records d and returns ctx.Err().
func (m *MockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Waits = append(m.Waits, d)
	return ctx.Err()
}

// MockLogger records log lines.
type MockLogger struct {
	Lines []string
	mu    sync.Mutex
}

// Ensure MockLogger implements domain.Logger interface.
var _ domain.Logger = (*MockLogger)(nil)

func (m *MockLogger) add(level, issue, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lines = append(m.Lines, fmt.Sprintf("%s [%s] [%s] %s", level, issue, category, msg))
}

// Info records an info line.
func (m *MockLogger) Info(issue, category, msg string) { m.add("INFO", issue, category, msg) }

// Debug records a debug line.
func (m *MockLogger) Debug(issue, category, msg string) { m.add("DEBUG", issue, category, msg) }

// Warn records a warning line.
func (m *MockLogger) Warn(issue, category, msg string) { m.add("WARN", issue, category, msg) }

// Error records an error line.
func (m *MockLogger) Error(issue, category, msg string) { m.add("ERROR", issue, category, msg) }

// Close does nothing.
func (m *MockLogger) Close() error { return nil }

// MockExecutor is a test double for domain.CommandExecutor.
type MockExecutor struct {
	Handler     func(cmd *domain.ExecCommand) ([]byte, error) // Answers Execute; nil returns no output
	Commands    []*domain.ExecCommand
	Interactive []*domain.ExecCommand
	InteractErr error
	mu          sync.Mutex
}

// Ensure MockExecutor implements domain.CommandExecutor interface.
var _ domain.CommandExecutor = (*MockExecutor)(nil)

// Execute records cmd and delegates to Handler.
func (m *MockExecutor) Execute(_ context.Context, cmd *domain.ExecCommand) ([]byte, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, cmd)
	m.mu.Unlock()
	if m.Handler == nil {
		return nil, nil
	}
	return m.Handler(cmd)
}

// ExecuteInteractive records cmd and returns InteractErr.
func (m *MockExecutor) ExecuteInteractive(_ context.Context, cmd *domain.ExecCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Interactive = append(m.Interactive, cmd)
	return m.InteractErr
}

// MockEditor is a test double for domain.Editor.
// Rewrite, when set, replaces the file content in Files.
type MockEditor struct {
	Files   *MockFileStore
	Rewrite func(content string) string
	Err     error
	Paths   []string
}

// Ensure MockEditor implements domain.Editor interface.
var _ domain.Editor = (*MockEditor)(nil)

// Edit applies Rewrite to the file in Files.
func (m *MockEditor) Edit(_ context.Context, p string) error {
	m.Paths = append(m.Paths, p)
	if m.Err != nil {
		return m.Err
	}
	if m.Rewrite == nil || m.Files == nil {
		return nil
	}
	content, err := m.Files.Read(p)
	if err != nil {
		return err
	}
	return m.Files.Write(p, m.Rewrite(content))
}

// MockFileStore is an in-memory domain.IssueFileStore.
type MockFileStore struct {
	Files    map[string]string
	WriteErr error
	mu       sync.Mutex
}

// Ensure MockFileStore implements domain.IssueFileStore interface.
var _ domain.IssueFileStore = (*MockFileStore)(nil)

// NewMockFileStore creates an empty MockFileStore.
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{Files: make(map[string]string)}
}

// Path returns "/ws/issues/<owner>/<repo>/<n>.md".
func (m *MockFileStore) Path(link domain.IssueLink) string {
	return path.Join("/ws/issues", link.Owner, link.Repo, domain.IssueFileName(link.Number))
}

// DraftPath returns "/ws/issues/<owner>/<repo>/drafts/<name>.md".
func (m *MockFileStore) DraftPath(repo domain.RepoRef, name string) string {
	return path.Join("/ws/issues", repo.Owner, repo.Name, "drafts", name+".md")
}

// Read returns the stored content or an error wrapping os.ErrNotExist.
func (m *MockFileStore) Read(p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.Files[p]
	if !ok {
		return "", fmt.Errorf("open %s: %w", p, os.ErrNotExist)
	}
	return content, nil
}

// Write stores content.
func (m *MockFileStore) Write(p, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Files[p] = content
	return nil
}

// Remove deletes the content.
func (m *MockFileStore) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Files, p)
	return nil
}

// MockSnapshotStore is an in-memory domain.SnapshotStore.
type MockSnapshotStore struct {
	Snapshots map[domain.IssueLink]*domain.Snapshot
	SaveErr   error
	LoadErr   error
	mu        sync.Mutex
}

// Ensure MockSnapshotStore implements domain.SnapshotStore interface.
var _ domain.SnapshotStore = (*MockSnapshotStore)(nil)

// NewMockSnapshotStore creates an empty MockSnapshotStore.
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{Snapshots: make(map[domain.IssueLink]*domain.Snapshot)}
}

// Load returns the stored snapshot.
func (m *MockSnapshotStore) Load(link domain.IssueLink) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	snap, ok := m.Snapshots[link]
	if !ok {
		return nil, fmt.Errorf("%s: %w", link, domain.ErrSnapshotNotFound)
	}
	cp := *snap
	return &cp, nil
}

// Save stores a copy of the snapshot.
func (m *MockSnapshotStore) Save(snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *snap
	m.Snapshots[snap.Link] = &cp
	return nil
}

// Delete removes the snapshot.
func (m *MockSnapshotStore) Delete(link domain.IssueLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Snapshots, link)
	return nil
}

// List returns snapshots sorted by key.
func (m *MockSnapshotStore) List() ([]*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Snapshot, 0, len(m.Snapshots))
	for _, s := range m.Snapshots {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return domain.SnapshotKey(out[i].Link) < domain.SnapshotKey(out[j].Link)
	})
	return out, nil
}

// MockConfigLoader is a test double for domain.ConfigLoader.
// Fields are ordered to minimize memory padding.
type MockConfigLoader struct {
	Config       *domain.Config
	GlobalConfig *domain.Config
	LoadErr      error
	GlobalErr    error
}

// NewMockConfigLoader creates a new MockConfigLoader with default config.
func NewMockConfigLoader() *MockConfigLoader {
	return &MockConfigLoader{
		Config: domain.NewDefaultConfig(),
	}
}

// Ensure MockConfigLoader implements domain.ConfigLoader interface.
var _ domain.ConfigLoader = (*MockConfigLoader)(nil)

// Load returns the configured config or error.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Config, nil
}

// LoadGlobal returns the configured config or error.
func (m *MockConfigLoader) LoadGlobal() (*domain.Config, error) {
	if m.GlobalErr != nil {
		return nil, m.GlobalErr
	}
	if m.GlobalConfig != nil {
		return m.GlobalConfig, nil
	}
	return m.Config, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitRepoErr      error
	InitGlobalErr    error
	InitConfig       *domain.Config
	RepoConfigInfo   domain.ConfigInfo
	GlobalConfigInfo domain.ConfigInfo
	InitRepoCalled   bool
	InitGlobalCalled bool
}

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		RepoConfigInfo: domain.ConfigInfo{
			Path: "/ws/.issuetree/config.toml",
		},
		GlobalConfigInfo: domain.ConfigInfo{
			Path: "/home/test/.config/issuetree/config.toml",
		},
	}
}

// Ensure MockConfigManager implements domain.ConfigManager interface.
var _ domain.ConfigManager = (*MockConfigManager)(nil)

// GetRepoConfigInfo returns the configured repo config info.
func (m *MockConfigManager) GetRepoConfigInfo() domain.ConfigInfo {
	return m.RepoConfigInfo
}

// GetGlobalConfigInfo returns the configured global config info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalConfigInfo
}

// InitRepoConfig records the call and returns configured error.
func (m *MockConfigManager) InitRepoConfig(cfg *domain.Config) error {
	m.InitRepoCalled = true
	m.InitConfig = cfg
	return m.InitRepoErr
}

// InitGlobalConfig records the call and returns configured error.
func (m *MockConfigManager) InitGlobalConfig(cfg *domain.Config) error {
	m.InitGlobalCalled = true
	m.InitConfig = cfg
	return m.InitGlobalErr
}

// IssueKey names one issue in FakeTracker failure rules.
func IssueKey(method string, link domain.IssueLink) string {
	return method + " " + link.String()
}

// fakeIssue is the tracker-side state of one issue.
type fakeIssue struct {
	remote   domain.RemoteIssue
	parent   *domain.IssueLink
	comments []domain.RemoteComment
	subs     []domain.IssueLink
}

// FakeTracker is an in-memory domain.IssueClient.
//
// Every mutation advances the touched issue's UpdatedAt by one second.
// Failures are injected per call through Fail, keyed by IssueKey (or by the
// bare method name for every call of that method); a rule with Times > 0
// fails only that many calls.
type FakeTracker struct {
	issues   map[domain.IssueLink]*fakeIssue
	Fail     map[string]*FailRule
	clock    time.Time
	User     string
	Calls    []string
	nextID   int64
	mu       sync.Mutex
	UserErr  error
	nextNums map[domain.RepoRef]int
	// TwoStepClose creates closed issues open and then closes them
	// through UpdateIssueState, like the REST API.
	TwoStepClose bool
}

// FailRule makes matching calls fail.
type FailRule struct {
	Err   error
	Times int // 0 fails forever
	// AfterApply makes the call take effect before failing, like a
	// request whose response was lost.
	AfterApply bool
}

// Ensure FakeTracker implements domain.IssueClient interface.
var _ domain.IssueClient = (*FakeTracker)(nil)

// NewFakeTracker creates an empty tracker acting as user.
func NewFakeTracker(user string) *FakeTracker {
	return &FakeTracker{
		issues:   make(map[domain.IssueLink]*fakeIssue),
		Fail:     make(map[string]*FailRule),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		User:     user,
		nextID:   1000,
		nextNums: make(map[domain.RepoRef]int),
	}
}

func (f *FakeTracker) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// Seed adds an issue. parent may be nil.
func (f *FakeTracker) Seed(issue domain.RemoteIssue, parent *domain.IssueLink) domain.IssueLink {
	f.mu.Lock()
	defer f.mu.Unlock()
	link := issue.Link
	repo := link.RepoRef()
	if link.Number == 0 {
		f.nextNums[repo]++
		link = domain.IssueLink{Owner: repo.Owner, Repo: repo.Name, Number: f.nextNums[repo]}
	} else if link.Number > f.nextNums[repo] {
		f.nextNums[repo] = link.Number
	}
	issue.Link = link
	if issue.ID == 0 {
		f.nextID++
		issue.ID = f.nextID
	}
	if issue.State == "" {
		issue.State = domain.RemoteStateOpen
	}
	if issue.UpdatedAt.IsZero() {
		issue.UpdatedAt = f.tick()
	}
	f.issues[link] = &fakeIssue{remote: issue}
	if parent != nil {
		f.attach(*parent, link)
	}
	return link
}

// SeedComment adds a comment by author and returns its ID.
func (f *FakeTracker) SeedComment(link domain.IssueLink, author, body string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	iss := f.issues[link]
	iss.comments = append(iss.comments, domain.RemoteComment{ID: f.nextID, Author: author, Body: body, CreatedAt: f.tick()})
	return f.nextID
}

// Touch simulates a change by someone else.
func (f *FakeTracker) Touch(link domain.IssueLink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[link].remote.UpdatedAt = f.tick()
}

// Issue returns a copy of the stored issue.
func (f *FakeTracker) Issue(link domain.IssueLink) (domain.RemoteIssue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iss, ok := f.issues[link]
	if !ok {
		return domain.RemoteIssue{}, false
	}
	return iss.remote, true
}

// Comments returns a copy of an issue's comments.
func (f *FakeTracker) Comments(link domain.IssueLink) []domain.RemoteComment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RemoteComment(nil), f.issues[link].comments...)
}

// SubIssues returns an issue's children in order.
func (f *FakeTracker) SubIssues(link domain.IssueLink) []domain.IssueLink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.IssueLink(nil), f.issues[link].subs...)
}

// Count returns the number of stored issues.
func (f *FakeTracker) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.issues)
}

// AddSubIssueRaw attaches child under parent without any checks, allowing cycles.
func (f *FakeTracker) AddSubIssueRaw(parent, child domain.IssueLink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[parent].subs = append(f.issues[parent].subs, child)
}

func (f *FakeTracker) attach(parent, child domain.IssueLink) {
	f.issues[parent].subs = append(f.issues[parent].subs, child)
	p := parent
	f.issues[child].parent = &p
}

func (f *FakeTracker) detach(child domain.IssueLink) {
	iss := f.issues[child]
	if iss.parent == nil {
		return
	}
	if parent, ok := f.issues[*iss.parent]; ok {
		for i, s := range parent.subs {
			if s == child {
				parent.subs = append(parent.subs[:i:i], parent.subs[i+1:]...)
				break
			}
		}
		parent.remote.UpdatedAt = f.tick()
	}
	iss.parent = nil
}

// begin records the call and returns the failure rule, if any. Caller holds f.mu.
func (f *FakeTracker) begin(method string, link domain.IssueLink) *FailRule {
	key := IssueKey(method, link)
	f.Calls = append(f.Calls, key)
	for _, k := range []string{key, method} {
		rule, ok := f.Fail[k]
		if !ok {
			continue
		}
		if rule.Times > 0 {
			rule.Times--
			if rule.Times == 0 {
				delete(f.Fail, k)
			}
		}
		return rule
	}
	return nil
}

func (f *FakeTracker) get(link domain.IssueLink) (*fakeIssue, error) {
	iss, ok := f.issues[link]
	if !ok {
		return nil, fmt.Errorf("%s: %w", link, domain.ErrRemoteNotFound)
	}
	return iss, nil
}

// FetchIssue returns the issue.
func (f *FakeTracker) FetchIssue(_ context.Context, link domain.IssueLink) (*domain.RemoteIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule := f.begin("FetchIssue", link); rule != nil {
		return nil, rule.Err
	}
	iss, err := f.get(link)
	if err != nil {
		return nil, err
	}
	remote := iss.remote
	remote.Labels = append([]string(nil), remote.Labels...)
	return &remote, nil
}

// FetchComments returns the issue's comments.
func (f *FakeTracker) FetchComments(_ context.Context, link domain.IssueLink) ([]domain.RemoteComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule := f.begin("FetchComments", link); rule != nil {
		return nil, rule.Err
	}
	iss, err := f.get(link)
	if err != nil {
		return nil, err
	}
	return append([]domain.RemoteComment(nil), iss.comments...), nil
}

// FetchSubIssues returns the issue's children.
func (f *FakeTracker) FetchSubIssues(_ context.Context, link domain.IssueLink) ([]domain.RemoteIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule := f.begin("FetchSubIssues", link); rule != nil {
		return nil, rule.Err
	}
	iss, err := f.get(link)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RemoteIssue, 0, len(iss.subs))
	for _, s := range iss.subs {
		if sub, ok := f.issues[s]; ok {
			out = append(out, sub.remote)
		} else {
			out = append(out, domain.RemoteIssue{Link: s, State: domain.RemoteStateOpen})
		}
	}
	return out, nil
}

// ListRecentIssues returns issues in repo authored by creator, highest number first.
func (f *FakeTracker) ListRecentIssues(_ context.Context, repo domain.RepoRef, creator string) ([]domain.RemoteIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule := f.begin("ListRecentIssues", domain.IssueLink{Owner: repo.Owner, Repo: repo.Name}); rule != nil {
		return nil, rule.Err
	}
	var out []domain.RemoteIssue
	for link, iss := range f.issues {
		if link.RepoRef() == repo && iss.remote.Author == creator {
			out = append(out, iss.remote)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Link.Number > out[j].Link.Number })
	return out, nil
}

// CreateIssue creates an issue authored by User.
func (f *FakeTracker) CreateIssue(_ context.Context, opts domain.CreateIssueOptions) (*domain.CreatedIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	repoLink := domain.IssueLink{Owner: opts.Repo.Owner, Repo: opts.Repo.Name}
	rule := f.begin("CreateIssue", repoLink)
	if rule != nil && !rule.AfterApply {
		return nil, rule.Err
	}

	f.nextNums[opts.Repo]++
	f.nextID++
	link := domain.IssueLink{Owner: opts.Repo.Owner, Repo: opts.Repo.Name, Number: f.nextNums[opts.Repo]}
	state := opts.State
	if f.TwoStepClose {
		state = domain.OpenState()
	}
	iss := &fakeIssue{remote: domain.RemoteIssue{
		Link:        link,
		ID:          f.nextID,
		Title:       opts.Title,
		Body:        opts.Body,
		Author:      f.User,
		Labels:      append([]string(nil), opts.Labels...),
		State:       state.RemoteState(),
		StateReason: state.RemoteStateReason(),
		UpdatedAt:   f.tick(),
	}}
	f.issues[link] = iss
	if rule != nil {
		return nil, rule.Err
	}
	created := &domain.CreatedIssue{Link: link, ID: f.nextID, URL: link.URL()}
	if state == opts.State {
		return created, nil
	}

	closeRule := f.begin("UpdateIssueState", link)
	if closeRule != nil && !closeRule.AfterApply {
		return created, fmt.Errorf("close created issue %s: %w", link, closeRule.Err)
	}
	iss.remote.State = opts.State.RemoteState()
	iss.remote.StateReason = opts.State.RemoteStateReason()
	iss.remote.UpdatedAt = f.tick()
	if closeRule != nil {
		return created, fmt.Errorf("close created issue %s: %w", link, closeRule.Err)
	}
	return created, nil
}

func (f *FakeTracker) mutate(method string, link domain.IssueLink, fn func(*fakeIssue)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule := f.begin(method, link)
	if rule != nil && !rule.AfterApply {
		return rule.Err
	}
	iss, err := f.get(link)
	if err != nil {
		return err
	}
	fn(iss)
	iss.remote.UpdatedAt = f.tick()
	if rule != nil {
		return rule.Err
	}
	return nil
}

// UpdateIssueState sets the state.
func (f *FakeTracker) UpdateIssueState(_ context.Context, link domain.IssueLink, state domain.CloseState) error {
	return f.mutate("UpdateIssueState", link, func(iss *fakeIssue) {
		iss.remote.State = state.RemoteState()
		iss.remote.StateReason = state.RemoteStateReason()
	})
}

// UpdateIssueBody sets the body.
func (f *FakeTracker) UpdateIssueBody(_ context.Context, link domain.IssueLink, body string) error {
	return f.mutate("UpdateIssueBody", link, func(iss *fakeIssue) {
		iss.remote.Body = body
	})
}

// UpdateIssueMeta sets title and labels.
func (f *FakeTracker) UpdateIssueMeta(_ context.Context, link domain.IssueLink, opts domain.UpdateIssueMetaOptions) error {
	return f.mutate("UpdateIssueMeta", link, func(iss *fakeIssue) {
		iss.remote.Title = opts.Title
		iss.remote.Labels = append([]string(nil), opts.Labels...)
	})
}

// CreateComment appends a comment authored by User.
func (f *FakeTracker) CreateComment(_ context.Context, link domain.IssueLink, body string) (int64, error) {
	var id int64
	err := f.mutate("CreateComment", link, func(iss *fakeIssue) {
		f.nextID++
		id = f.nextID
		iss.comments = append(iss.comments, domain.RemoteComment{ID: id, Author: f.User, Body: body, CreatedAt: f.clock})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateComment replaces a comment's body.
func (f *FakeTracker) UpdateComment(_ context.Context, link domain.IssueLink, id int64, body string) error {
	found := false
	err := f.mutate("UpdateComment", link, func(iss *fakeIssue) {
		for i := range iss.comments {
			if iss.comments[i].ID == id {
				iss.comments[i].Body = body
				found = true
			}
		}
	})
	if err == nil && !found {
		return fmt.Errorf("comment %d: %w", id, domain.ErrRemoteNotFound)
	}
	return err
}

// DeleteComment removes a comment.
func (f *FakeTracker) DeleteComment(_ context.Context, link domain.IssueLink, id int64) error {
	found := false
	err := f.mutate("DeleteComment", link, func(iss *fakeIssue) {
		for i := range iss.comments {
			if iss.comments[i].ID == id {
				iss.comments = append(iss.comments[:i:i], iss.comments[i+1:]...)
				found = true
				break
			}
		}
	})
	if err == nil && !found {
		return fmt.Errorf("comment %d: %w", id, domain.ErrRemoteNotFound)
	}
	return err
}

// AddSubIssue attaches child under parent, moving it when replaceParent is set.
func (f *FakeTracker) AddSubIssue(_ context.Context, parent, child domain.IssueLink, replaceParent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule := f.begin("AddSubIssue", child); rule != nil {
		return rule.Err
	}
	if _, err := f.get(parent); err != nil {
		return err
	}
	c, err := f.get(child)
	if err != nil {
		return err
	}
	if c.parent != nil {
		if *c.parent == parent {
			return fmt.Errorf("%s is already a sub-issue of %s", child, parent)
		}
		if !replaceParent {
			return fmt.Errorf("%s already has a parent", child)
		}
		f.detach(child)
	}
	f.attach(parent, child)
	f.issues[parent].remote.UpdatedAt = f.tick()
	return nil
}

// RemoveSubIssue detaches child from parent.
func (f *FakeTracker) RemoveSubIssue(_ context.Context, parent, child domain.IssueLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule := f.begin("RemoveSubIssue", child); rule != nil {
		return rule.Err
	}
	c, err := f.get(child)
	if err != nil {
		return err
	}
	if c.parent == nil || *c.parent != parent {
		return fmt.Errorf("%s is not a sub-issue of %s: %w", child, parent, domain.ErrRemoteNotFound)
	}
	f.detach(child)
	return nil
}

// CurrentUser returns User.
func (f *FakeTracker) CurrentUser(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "CurrentUser")
	if f.UserErr != nil {
		return "", f.UserErr
	}
	return f.User, nil
}
