// Package app provides the dependency injection container for the application.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/infra/config"
	"github.com/runoshun/issuetree/internal/infra/editor"
	"github.com/runoshun/issuetree/internal/infra/executor"
	"github.com/runoshun/issuetree/internal/infra/filestore"
	"github.com/runoshun/issuetree/internal/infra/git"
	"github.com/runoshun/issuetree/internal/infra/github"
	"github.com/runoshun/issuetree/internal/infra/gitstore"
	"github.com/runoshun/issuetree/internal/infra/jsonstore"
	"github.com/runoshun/issuetree/internal/infra/logging"
	"github.com/runoshun/issuetree/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	WorkspaceRoot string // Git repository root, or the starting directory outside a repository
	DataDir       string // Path to .issuetree
}

// newConfig derives the paths from the workspace root.
func newConfig(root string) Config {
	return Config{
		WorkspaceRoot: root,
		DataDir:       domain.DataDir(root),
	}
}

// OriginResolver reports the repository the workspace's origin remote points at.
type OriginResolver interface {
	OriginRepo() (domain.RepoRef, error)
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Issues        domain.IssueClient
	Snapshots     domain.SnapshotStore
	Files         domain.IssueFileStore
	Editor        domain.Editor
	Clock         domain.Clock
	Sleeper       domain.Sleeper
	Logger        domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager
	Origin        OriginResolver // nil outside a git repository

	// Pointer fields
	AppConfig *domain.Config

	// Configuration
	Config Config
}

// New creates a new Container for the workspace containing dir.
// Outside a git repository dir itself is the workspace root.
func New(dir string) (*Container, error) {
	var origin OriginResolver
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	gitClient, err := git.NewClient(dir)
	switch {
	case errors.Is(err, domain.ErrNotGitRepository):
	case err != nil:
		return nil, err
	default:
		root = gitClient.RepoRoot()
		origin = gitClient
	}

	cfg := newConfig(root)

	configLoader := config.NewLoader(cfg.DataDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		appConfig = domain.NewDefaultConfig()
		appConfig.Warnings = append(appConfig.Warnings, err.Error())
	}

	// Snapshot store chosen by config; json is the default.
	var snapshots domain.SnapshotStore
	if appConfig.Store.Type == domain.StoreTypeGit {
		var key string
		if appConfig.Store.Encrypt {
			key = os.Getenv(domain.StoreKeyEnv)
			if key == "" {
				return nil, fmt.Errorf("store.encrypt is set but %s is empty", domain.StoreKeyEnv)
			}
		}
		gitStore, err := gitstore.NewWithEncryption(domain.SnapshotRepoPath(cfg.DataDir), appConfig.Store.Namespace, key)
		if err != nil {
			return nil, err
		}
		snapshots = gitStore
	} else {
		snapshots = jsonstore.New(domain.SnapshotStorePath(cfg.DataDir))
	}

	exec := executor.NewClient()

	return &Container{
		Issues:        github.NewClient(exec, appConfig.GitHub.GHPath),
		Snapshots:     snapshots,
		Files:         filestore.New(cfg.DataDir),
		Editor:        editor.New(exec, appConfig.Editor.Command),
		Clock:         domain.RealClock{},
		Sleeper:       domain.RealSleeper{},
		Logger:        logging.New(cfg.DataDir, logging.ParseLevel(appConfig.Log.Level)),
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(cfg.DataDir),
		Origin:        origin,
		AppConfig:     appConfig,
		Config:        cfg,
	}, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(
	cfg Config,
	appConfig *domain.Config,
	issues domain.IssueClient,
	snapshots domain.SnapshotStore,
	files domain.IssueFileStore,
	clock domain.Clock,
	sleeper domain.Sleeper,
) *Container {
	return &Container{
		Issues:    issues,
		Snapshots: snapshots,
		Files:     files,
		Clock:     clock,
		Sleeper:   sleeper,
		Logger:    domain.NopLogger{},
		AppConfig: appConfig,
		Config:    cfg,
	}
}

// Close releases the log files.
func (c *Container) Close() error {
	if c.Logger == nil {
		return nil
	}
	return c.Logger.Close()
}

// CurrentUser returns the configured login, or "" to resolve it via the tracker.
func (c *Container) CurrentUser() string {
	return c.AppConfig.GitHub.User
}

// DefaultRepo returns the repository for bare issue numbers and new root issues:
// github.repo from config, otherwise the origin remote.
func (c *Container) DefaultRepo() (domain.RepoRef, error) {
	if c.AppConfig.GitHub.Repo != "" {
		repo, err := domain.ParseRepoRef(c.AppConfig.GitHub.Repo)
		if err != nil {
			return domain.RepoRef{}, fmt.Errorf("github.repo: %w", err)
		}
		return repo, nil
	}
	if c.Origin == nil {
		return domain.RepoRef{}, fmt.Errorf("no repository configured and not inside a git repository: %w", domain.ErrInvalidLink)
	}
	repo, err := c.Origin.OriginRepo()
	if err != nil {
		return domain.RepoRef{}, fmt.Errorf("no repository configured: %w", err)
	}
	return repo, nil
}

// UseCase factory methods

// IngestIssueUseCase returns a new IngestIssue use case.
func (c *Container) IngestIssueUseCase() *usecase.IngestIssue {
	return usecase.NewIngestIssue(c.Issues, c.Logger, c.AppConfig.Sync.Concurrency)
}

// PushIssueUseCase returns a new PushIssue use case.
func (c *Container) PushIssueUseCase() *usecase.PushIssue {
	return usecase.NewPushIssue(c.Issues, c.Logger, c.Sleeper, c.AppConfig.Sync)
}

// PullIssueUseCase returns a new PullIssue use case.
func (c *Container) PullIssueUseCase() *usecase.PullIssue {
	return usecase.NewPullIssue(c.IngestIssueUseCase(), c.Snapshots, c.Files, c.Clock)
}

// SyncIssueUseCase returns a new SyncIssue use case.
func (c *Container) SyncIssueUseCase() *usecase.SyncIssue {
	return usecase.NewSyncIssue(c.IngestIssueUseCase(), c.PushIssueUseCase(), c.Snapshots, c.Files, c.Clock, c.Logger)
}

// OpenIssueUseCase returns a new OpenIssue use case.
func (c *Container) OpenIssueUseCase() *usecase.OpenIssue {
	return usecase.NewOpenIssue(c.PullIssueUseCase(), c.SyncIssueUseCase(), c.Snapshots, c.Files, c.Editor, c.Logger)
}

// NewIssueUseCase returns a new NewIssue use case.
func (c *Container) NewIssueUseCase() *usecase.NewIssue {
	return usecase.NewNewIssue(c.Files)
}

// ListIssuesUseCase returns a new ListIssues use case.
func (c *Container) ListIssuesUseCase() *usecase.ListIssues {
	return usecase.NewListIssues(c.Snapshots, c.Files)
}

// ListBlockersUseCase returns a new ListBlockers use case.
func (c *Container) ListBlockersUseCase() *usecase.ListBlockers {
	return usecase.NewListBlockers(c.Files)
}

// CurrentBlockerUseCase returns a new CurrentBlocker use case.
func (c *Container) CurrentBlockerUseCase() *usecase.CurrentBlocker {
	return usecase.NewCurrentBlocker(c.Files)
}

// AddBlockerUseCase returns a new AddBlocker use case.
func (c *Container) AddBlockerUseCase() *usecase.AddBlocker {
	return usecase.NewAddBlocker(c.Files)
}

// PopBlockerUseCase returns a new PopBlocker use case.
func (c *Container) PopBlockerUseCase() *usecase.PopBlocker {
	return usecase.NewPopBlocker(c.Files)
}

// ShowIssueUseCase returns a new ShowIssue use case.
func (c *Container) ShowIssueUseCase() *usecase.ShowIssue {
	return usecase.NewShowIssue(c.Files)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}
