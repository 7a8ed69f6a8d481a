package domain

import (
	"bytes"
	_ "embed"
	"path/filepath"
	"strconv"
	"text/template"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string     `toml:"-"`
	GitHub   GitHubConfig `toml:"github"`
	Store    StoreConfig  `toml:"store"`
	Editor   EditorConfig `toml:"editor"`
	Log      LogConfig    `toml:"log"`
	Sync     SyncConfig   `toml:"sync"`
}

// GitHubConfig holds tracker settings from [github] section.
type GitHubConfig struct {
	User   string `toml:"user,omitempty"`    // Login used for ownership; resolved via the API when empty
	GHPath string `toml:"gh_path,omitempty"` // gh executable (default: "gh")
	Repo   string `toml:"repo,omitempty"`    // Default "owner/repo" for new root issues
}

// SyncConfig holds pull/push settings from [sync] section.
// Fields are ordered to minimize memory padding.
type SyncConfig struct {
	RetryWait   string `toml:"retry_wait,omitempty"`  // Initial backoff between retries (Go duration)
	Concurrency int    `toml:"concurrency,omitempty"` // Max parallel remote calls during ingest
	Retries     int    `toml:"retries,omitempty"`     // Retries for idempotent remote actions
}

// StoreConfig holds snapshot storage settings from [store] section.
type StoreConfig struct {
	Type      string `toml:"type,omitempty"`      // "json" (default) or "git"
	Namespace string `toml:"namespace,omitempty"` // Ref namespace for the git store
	Encrypt   bool   `toml:"encrypt,omitempty"`   // Encrypt git store blobs with the key in StoreKeyEnv
}

// EditorConfig holds editor settings from [editor] section.
type EditorConfig struct {
	Command string `toml:"command,omitempty"` // Overrides $EDITOR / $VISUAL
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// Default configuration values.
const (
	DefaultLogLevel       = "info"
	DefaultGHPath         = "gh"
	DefaultConcurrency    = 4
	DefaultRetries        = 2
	DefaultRetryWait      = 500 * time.Millisecond
	DefaultStoreType      = StoreTypeJSON
	DefaultStoreNamespace = "issuetree"
)

// Snapshot store backends.
const (
	StoreTypeJSON = "json"
	StoreTypeGit  = "git"
)

// StoreKeyEnv names the environment variable holding the hex-encoded
// AES-256 key for an encrypted git store.
const StoreKeyEnv = "ISSUETREE_STORE_KEY"

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{GHPath: DefaultGHPath},
		Sync: SyncConfig{
			Concurrency: DefaultConcurrency,
			Retries:     DefaultRetries,
			RetryWait:   DefaultRetryWait.String(),
		},
		Store: StoreConfig{
			Type:      DefaultStoreType,
			Namespace: DefaultStoreNamespace,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// RetryWaitDuration returns the parsed retry wait, falling back to the default.
func (c SyncConfig) RetryWaitDuration() time.Duration {
	d, err := time.ParseDuration(c.RetryWait)
	if err != nil || d < 0 {
		return DefaultRetryWait
	}
	return d
}

// Directory and file names.
const (
	DataDirName      = ".issuetree"     // Workspace data directory
	ConfigFileName   = "config.toml"    // Config file name
	SnapshotFileName = "snapshots.json" // JSON snapshot store
	SnapshotRepoName = "snapshots.git"  // Bare repository for the git snapshot store
	IssuesDirName    = "issues"         // Local issue files
	GlobalDirName    = "issuetree"      // Directory under the user config home
)

// DataDir returns the data directory of a workspace.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// RepoConfigPath returns the workspace config path.
func RepoConfigPath(root string) string {
	return filepath.Join(DataDir(root), ConfigFileName)
}

// GlobalConfigDir returns the global config directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, GlobalDirName)
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalConfigDir(configHome), ConfigFileName)
}

// SnapshotStorePath returns the JSON snapshot store path.
func SnapshotStorePath(dataDir string) string {
	return filepath.Join(dataDir, SnapshotFileName)
}

// SnapshotRepoPath returns the git snapshot repository path.
func SnapshotRepoPath(dataDir string) string {
	return filepath.Join(dataDir, SnapshotRepoName)
}

// IssueFilePath returns the local file path for an issue.
func IssueFilePath(dataDir string, link IssueLink) string {
	return filepath.Join(dataDir, IssuesDirName, link.Owner, link.Repo, IssueFileName(link.Number))
}

// IssueFileName returns the base name of an issue file.
func IssueFileName(number int) string {
	return strconv.Itoa(number) + ".md"
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", "issuetree.log")
}

// IssueLogPath returns the path to an issue's log file.
func IssueLogPath(dataDir string, link IssueLink) string {
	return filepath.Join(dataDir, "logs", link.Owner+"-"+link.Repo+"-"+strconv.Itoa(link.Number)+".log")
}

// RenderConfigTemplate renders a commented config file from the given Config.
func RenderConfigTemplate(cfg *Config) string {
	tmpl := template.Must(template.New("config").Parse(configTemplateContent))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return configTemplateContent
	}
	return buf.String()
}
