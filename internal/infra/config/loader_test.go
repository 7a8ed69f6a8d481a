package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/issuetree/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o644)
	require.NoError(t, err)
}

func TestLoader_Load_Defaults(t *testing.T) {
	loader := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir())

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.NewDefaultConfig(), cfg)
}

func TestLoader_Load_RepoConfigOnly(t *testing.T) {
	// Setup
	dataDir := t.TempDir()
	writeConfig(t, dataDir, `
[github]
user = "alice"
repo = "acme/app"

[sync]
concurrency = 8
retries = 3
retry_wait = "1s"

[store]
type = "git"
namespace = "team"
encrypt = true

[editor]
command = "nvim"

[log]
level = "debug"
`)

	// Execute
	cfg, err := NewLoaderWithGlobalDir(dataDir, t.TempDir()).Load()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "alice", cfg.GitHub.User)
	assert.Equal(t, "acme/app", cfg.GitHub.Repo)
	assert.Equal(t, domain.DefaultGHPath, cfg.GitHub.GHPath)
	assert.Equal(t, 8, cfg.Sync.Concurrency)
	assert.Equal(t, 3, cfg.Sync.Retries)
	assert.Equal(t, "1s", cfg.Sync.RetryWait)
	assert.Equal(t, domain.StoreTypeGit, cfg.Store.Type)
	assert.Equal(t, "team", cfg.Store.Namespace)
	assert.True(t, cfg.Store.Encrypt)
	assert.Equal(t, "nvim", cfg.Editor.Command)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Warnings)
}

func TestLoader_Load_MergeRepoOverridesGlobal(t *testing.T) {
	// Setup
	dataDir := t.TempDir()
	globalDir := t.TempDir()
	writeConfig(t, globalDir, `
[github]
user = "alice"
gh_path = "/opt/gh"

[log]
level = "warn"
`)
	writeConfig(t, dataDir, `
[log]
level = "debug"
`)

	// Execute
	cfg, err := NewLoaderWithGlobalDir(dataDir, globalDir).Load()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "alice", cfg.GitHub.User)
	assert.Equal(t, "/opt/gh", cfg.GitHub.GHPath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_Load_Warnings(t *testing.T) {
	dataDir := t.TempDir()
	writeConfig(t, dataDir, `
[github]
token = "x"

[sync]
retries = "many"

[store]
type = "sqlite"

[workers]
default = "claude"
`)

	cfg, err := NewLoaderWithGlobalDir(dataDir, t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"invalid value for store.type: sqlite",
		"invalid value for sync.retries: many",
		"unknown key in [github]: token",
		"unknown section: workers",
	}, cfg.Warnings)
	assert.Equal(t, domain.StoreTypeJSON, cfg.Store.Type)
	assert.Equal(t, domain.DefaultRetries, cfg.Sync.Retries)
}

func TestLoader_Load_InvalidTOML(t *testing.T) {
	dataDir := t.TempDir()
	writeConfig(t, dataDir, "[log\nlevel = ")

	_, err := NewLoaderWithGlobalDir(dataDir, t.TempDir()).Load()
	assert.Error(t, err)
}

func TestLoader_LoadGlobal_Missing(t *testing.T) {
	_, err := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir()).LoadGlobal()
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewLoaderWithGlobalDir(t.TempDir(), "").LoadGlobal()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
