// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/issuetree/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	dataDir       string // Path to .issuetree directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/issuetree)
}

// NewLoader creates a new Loader.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		dataDir:       dataDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(dataDir, globalConfDir string) *Loader {
	return &Loader{
		dataDir:       dataDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// Load returns the merged configuration (workspace + global).
// Workspace config takes precedence over global config.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	repo, err := l.LoadRepo()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	// Merge: default <- global <- workspace (later takes precedence)
	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if repo != nil {
		base = mergeConfigs(base, repo)
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadRepo returns only the workspace configuration.
func (l *Loader) LoadRepo() (*domain.Config, error) {
	return l.loadFile(filepath.Join(l.dataDir, domain.ConfigFileName))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// section walks the keys of one table, reporting unknown ones.
type section struct {
	name     string
	warnings *[]string
}

func (s section) unknown(key string) {
	*s.warnings = append(*s.warnings, fmt.Sprintf("unknown key in [%s]: %s", s.name, key))
}

func (s section) invalid(key string, v any) {
	*s.warnings = append(*s.warnings, fmt.Sprintf("invalid value for %s.%s: %v", s.name, key, v))
}

func (s section) str(key string, v any, dst *string) {
	if str, ok := v.(string); ok {
		*dst = str
		return
	}
	s.invalid(key, v)
}

func (s section) bool(key string, v any, dst *bool) {
	if b, ok := v.(bool); ok {
		*dst = b
		return
	}
	s.invalid(key, v)
}

func (s section) int(key string, v any, dst *int) {
	if n, ok := v.(int64); ok && n >= 0 {
		*dst = int(n)
		return
	}
	s.invalid(key, v)
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	for name, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", name))
			continue
		}
		s := section{name: name, warnings: &warnings}
		switch name {
		case "github":
			for k, v := range m {
				switch k {
				case "user":
					s.str(k, v, &res.GitHub.User)
				case "gh_path":
					s.str(k, v, &res.GitHub.GHPath)
				case "repo":
					s.str(k, v, &res.GitHub.Repo)
				default:
					s.unknown(k)
				}
			}
		case "sync":
			for k, v := range m {
				switch k {
				case "concurrency":
					s.int(k, v, &res.Sync.Concurrency)
				case "retries":
					s.int(k, v, &res.Sync.Retries)
				case "retry_wait":
					s.str(k, v, &res.Sync.RetryWait)
				default:
					s.unknown(k)
				}
			}
		case "store":
			for k, v := range m {
				switch k {
				case "type":
					s.str(k, v, &res.Store.Type)
					if res.Store.Type != "" && res.Store.Type != domain.StoreTypeJSON && res.Store.Type != domain.StoreTypeGit {
						s.invalid(k, v)
						res.Store.Type = ""
					}
				case "namespace":
					s.str(k, v, &res.Store.Namespace)
				case "encrypt":
					s.bool(k, v, &res.Store.Encrypt)
				default:
					s.unknown(k)
				}
			}
		case "editor":
			for k, v := range m {
				switch k {
				case "command":
					s.str(k, v, &res.Editor.Command)
				default:
					s.unknown(k)
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					s.str(k, v, &res.Log.Level)
				default:
					s.unknown(k)
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", name))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := *base
	result.Warnings = append(append([]string{}, base.Warnings...), override.Warnings...)

	if override.GitHub.User != "" {
		result.GitHub.User = override.GitHub.User
	}
	if override.GitHub.GHPath != "" {
		result.GitHub.GHPath = override.GitHub.GHPath
	}
	if override.GitHub.Repo != "" {
		result.GitHub.Repo = override.GitHub.Repo
	}
	if override.Sync.Concurrency != 0 {
		result.Sync.Concurrency = override.Sync.Concurrency
	}
	if override.Sync.Retries != 0 {
		result.Sync.Retries = override.Sync.Retries
	}
	if override.Sync.RetryWait != "" {
		result.Sync.RetryWait = override.Sync.RetryWait
	}
	if override.Store.Type != "" {
		result.Store.Type = override.Store.Type
	}
	if override.Store.Namespace != "" {
		result.Store.Namespace = override.Store.Namespace
	}
	if override.Store.Encrypt {
		result.Store.Encrypt = true
	}
	if override.Editor.Command != "" {
		result.Editor.Command = override.Editor.Command
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	return &result
}
