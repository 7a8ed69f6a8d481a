// Package filestore provides the local issue files under .issuetree/issues.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/runoshun/issuetree/internal/domain"
)

// DraftsDirName holds files of root issues that do not exist remotely yet.
const DraftsDirName = "drafts"

// Store implements domain.IssueFileStore.
type Store struct {
	dataDir  string
	lockPath string
}

// Ensure Store implements IssueFileStore.
var _ domain.IssueFileStore = (*Store)(nil)

// New creates a new Store rooted at the .issuetree directory.
func New(dataDir string) *Store {
	return &Store{
		dataDir:  dataDir,
		lockPath: filepath.Join(dataDir, domain.IssuesDirName, ".lock"),
	}
}

// Path returns the local file path for a root issue.
func (s *Store) Path(link domain.IssueLink) string {
	return domain.IssueFilePath(s.dataDir, link)
}

// DraftPath returns the local file path for a new root issue.
func (s *Store) DraftPath(repo domain.RepoRef, name string) string {
	return filepath.Join(s.dataDir, domain.IssuesDirName, repo.Owner, repo.Name, DraftsDirName, filepath.Base(name)+".md")
}

// Read returns the file content.
func (s *Store) Read(path string) (string, error) {
	var content []byte
	err := s.withLock(syscall.LOCK_SH, func() error {
		var err error
		content, err = os.ReadFile(path)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Write replaces the file content atomically.
func (s *Store) Write(path, content string) error {
	return s.withLock(syscall.LOCK_EX, func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
		return writeAtomic(path, []byte(content), 0o600)
	})
}

// Remove deletes the file. Missing files are not an error.
func (s *Store) Remove(path string) error {
	return s.withLock(syscall.LOCK_EX, func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	})
}

func (s *Store) withLock(lockType int, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o750); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lock.Close() }()

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN) }()

	return fn()
}

func writeAtomic(path string, content []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
