// Package jsonstore provides a JSON file-based implementation of SnapshotStore.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/runoshun/issuetree/internal/domain"
)

// storeData represents the JSON file structure.
type storeData struct {
	Snapshots map[string]*domain.Snapshot `json:"snapshots"`
	Meta      meta                        `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	Version int `json:"version"`
}

const storeVersion = 1

// Store implements domain.SnapshotStore using a JSON file.
type Store struct {
	path     string
	lockPath string
}

// Ensure Store implements SnapshotStore.
var _ domain.SnapshotStore = (*Store)(nil)

// New creates a new Store for the given file path.
// The file does not need to exist; it will be created on first write.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Load retrieves the snapshot of a root issue.
func (s *Store) Load(link domain.IssueLink) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := s.withLock(func(data *storeData) error {
		found, ok := data.Snapshots[domain.SnapshotKey(link)]
		if !ok {
			return fmt.Errorf("%s: %w", link, domain.ErrSnapshotNotFound)
		}
		snap = found
		snap.Link = link
		return nil
	})
	return snap, err
}

// Save replaces the snapshot of a root issue.
func (s *Store) Save(snapshot *domain.Snapshot) error {
	return s.withLockWrite(func(data *storeData) error {
		data.Snapshots[domain.SnapshotKey(snapshot.Link)] = snapshot
		return nil
	})
}

// Delete removes the snapshot of a root issue.
func (s *Store) Delete(link domain.IssueLink) error {
	return s.withLockWrite(func(data *storeData) error {
		delete(data.Snapshots, domain.SnapshotKey(link))
		return nil
	})
}

// List returns all snapshots sorted by key. Entries with an unparsable key are skipped.
func (s *Store) List() ([]*domain.Snapshot, error) {
	var snaps []*domain.Snapshot
	err := s.withLock(func(data *storeData) error {
		for key, snap := range data.Snapshots {
			link, err := domain.ParseIssueLink(key)
			if err != nil {
				continue
			}
			snap.Link = link
			snaps = append(snaps, snap)
		}
		return nil
	})
	slices.SortFunc(snaps, func(a, b *domain.Snapshot) int {
		return strings.Compare(domain.SnapshotKey(a.Link), domain.SnapshotKey(b.Link))
	})
	return snaps, err
}

// withLock executes fn with a shared (read) lock.
func (s *Store) withLock(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	return fn(data)
}

// withLockWrite executes fn with an exclusive (write) lock and writes the result.
func (s *Store) withLockWrite(fn func(*storeData) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return err
	}

	if err := fn(data); err != nil {
		return err
	}

	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

// read loads the store. A missing file reads as an empty store.
func (s *Store) read() (*storeData, error) {
	data := storeData{Meta: meta{Version: storeVersion}}

	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		data.Snapshots = make(map[string]*domain.Snapshot)
		return &data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	if data.Snapshots == nil {
		data.Snapshots = make(map[string]*domain.Snapshot)
	}
	return &data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
