package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/testutil"
	"github.com/runoshun/issuetree/internal/usecase"
)

func TestShowConfig_Execute(t *testing.T) {
	t.Run("returns both config infos and effective config", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.RepoConfigInfo = domain.ConfigInfo{
			Path:    "/ws/.issuetree/config.toml",
			Content: "[github]\nrepo = \"acme/app\"",
			Exists:  true,
		}
		manager.GlobalConfigInfo = domain.ConfigInfo{
			Path:    "/home/test/.config/issuetree/config.toml",
			Content: "[log]\nlevel = \"debug\"",
			Exists:  true,
		}
		loader := testutil.NewMockConfigLoader()
		loader.Config.GitHub.Repo = "acme/app"
		loader.Config.Log.Level = "debug"

		uc := usecase.NewShowConfig(manager, loader)
		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		require.NoError(t, err)
		assert.Equal(t, manager.RepoConfigInfo, out.RepoConfig)
		assert.Equal(t, manager.GlobalConfigInfo, out.GlobalConfig)
		require.NotNil(t, out.EffectiveConfig)
		assert.Equal(t, "acme/app", out.EffectiveConfig.GitHub.Repo)
		assert.Equal(t, "debug", out.EffectiveConfig.Log.Level)
	})

	t.Run("handles non-existent files", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()

		uc := usecase.NewShowConfig(manager, testutil.NewMockConfigLoader())
		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		require.NoError(t, err)
		assert.False(t, out.RepoConfig.Exists)
		assert.False(t, out.GlobalConfig.Exists)
		assert.Empty(t, out.RepoConfig.Content)
		assert.Equal(t, domain.NewDefaultConfig(), out.EffectiveConfig)
	})

	t.Run("returns load error", func(t *testing.T) {
		loader := testutil.NewMockConfigLoader()
		loader.LoadErr = errors.New("bad toml")

		uc := usecase.NewShowConfig(testutil.NewMockConfigManager(), loader)
		_, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		assert.Error(t, err)
	})
}
