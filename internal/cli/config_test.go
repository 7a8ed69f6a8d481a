package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/testutil"
)

func TestConfigCommand_NoSubcommand_ShowsHelp(t *testing.T) {
	f := newFixture(t)

	out, _, err := execute(newConfigCommand(f.c))

	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "show")
	assert.Contains(t, out, "init")
}

func TestConfigShowCommand_DisplaysEffectiveConfig(t *testing.T) {
	f := newFixture(t)
	manager := f.c.ConfigManager.(*testutil.MockConfigManager)
	manager.RepoConfigInfo.Exists = true

	out, _, err := f.run(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Loaded from]")
	assert.Contains(t, out, "- /home/test/.config/issuetree/config.toml (not found)\n")
	assert.Contains(t, out, "- /ws/.issuetree/config.toml\n")
	assert.Contains(t, out, "[Effective Config]")

	_, effective, found := strings.Cut(out, "[Effective Config]\n")
	require.True(t, found)
	var got domain.Config
	require.NoError(t, toml.Unmarshal([]byte(effective), &got))
	assert.Equal(t, "alice", got.GitHub.User)
	assert.Equal(t, "acme/app", got.GitHub.Repo)
	assert.Equal(t, domain.DefaultConcurrency, got.Sync.Concurrency)
}

func TestConfigShowCommand_LoadError(t *testing.T) {
	f := newFixture(t)
	f.c.ConfigLoader = &testutil.MockConfigLoader{LoadErr: errors.New("bad toml")}

	_, _, err := f.run(t, "config", "show")

	assert.ErrorContains(t, err, "bad toml")
}

func TestConfigInitCommand(t *testing.T) {
	f := newFixture(t)
	manager := f.c.ConfigManager.(*testutil.MockConfigManager)

	out, _, err := f.run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created config file: /ws/.issuetree/config.toml")
	assert.True(t, manager.InitRepoCalled)
	assert.Equal(t, "alice", manager.InitConfig.GitHub.User)

	out, _, err = f.run(t, "config", "init", "--global")
	require.NoError(t, err)
	assert.Contains(t, out, "Created config file: /home/test/.config/issuetree/config.toml")
	assert.True(t, manager.InitGlobalCalled)
}

func TestConfigInitCommand_Exists(t *testing.T) {
	f := newFixture(t)
	manager := f.c.ConfigManager.(*testutil.MockConfigManager)
	manager.InitRepoErr = domain.ErrConfigExists

	_, _, err := f.run(t, "config", "init")

	assert.ErrorIs(t, err, domain.ErrConfigExists)
}

func TestConfigInitCommand_BrokenConfigUsesDefaults(t *testing.T) {
	f := newFixture(t)
	f.c.ConfigLoader = &testutil.MockConfigLoader{LoadErr: errors.New("bad toml")}
	manager := f.c.ConfigManager.(*testutil.MockConfigManager)

	_, _, err := f.run(t, "config", "init")

	require.NoError(t, err)
	assert.Equal(t, domain.NewDefaultConfig(), manager.InitConfig)
}
