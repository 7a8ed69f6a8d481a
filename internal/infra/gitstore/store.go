// Package gitstore provides a Git plumbing-based implementation of SnapshotStore.
package gitstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/issuetree/internal/domain"
	"github.com/runoshun/issuetree/internal/infra/crypto"
)

// Store implements domain.SnapshotStore using Git plumbing (refs and blobs).
//
// Data structure:
//
//	refs/<namespace>/snapshots/
//	  <owner>/<repo>/<number> → blob (snapshot YAML)
//
// Refs can be pushed to and fetched from a remote like any other ref,
// which lets a team share its last-synced trees.
type Store struct {
	repo      *git.Repository
	encryptor *crypto.Encryptor // nil stores plain YAML
	namespace string            // e.g., "issuetree"
	mu        sync.RWMutex
}

// Ensure Store implements SnapshotStore.
var _ domain.SnapshotStore = (*Store)(nil)

// snapshotBlob is the YAML stored in each blob.
// Fields are ordered to minimize memory padding.
type snapshotBlob struct {
	SavedAt time.Time `yaml:"savedAt"`
	Link    string    `yaml:"link"`
	Content string    `yaml:"content"`
}

// New opens the repository at repoPath, creating a bare one if it does not exist.
func New(repoPath, namespace string) (*Store, error) {
	return NewWithEncryption(repoPath, namespace, "")
}

// NewWithEncryption is like New but seals every blob with AES-256-GCM.
// If encryptionKey is empty, encryption is disabled.
// encryptionKey must be 64 hex characters (32 bytes).
func NewWithEncryption(repoPath, namespace, encryptionKey string) (*Store, error) {
	var encryptor *crypto.Encryptor
	if encryptionKey != "" {
		var err error
		encryptor, err = crypto.NewEncryptor(encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("create encryptor: %w", err)
		}
	}

	repo, err := git.PlainOpen(repoPath)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if mkErr := os.MkdirAll(repoPath, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create snapshot repository: %w", mkErr)
		}
		repo, err = git.PlainInit(repoPath, true)
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot repository: %w", err)
	}
	return NewWithRepoAndEncryptor(repo, namespace, encryptor), nil
}

// NewWithRepo creates a new Store with an existing repository instance.
func NewWithRepo(repo *git.Repository, namespace string) *Store {
	return NewWithRepoAndEncryptor(repo, namespace, nil)
}

// NewWithRepoAndEncryptor creates a new Store with an existing repository and encryptor.
func NewWithRepoAndEncryptor(repo *git.Repository, namespace string, encryptor *crypto.Encryptor) *Store {
	return &Store{
		repo:      repo,
		namespace: namespace,
		encryptor: encryptor,
	}
}

// refPrefix returns the snapshot ref prefix for this namespace.
func (s *Store) refPrefix() string {
	return "refs/" + s.namespace + "/snapshots/"
}

// snapshotRef returns the ref name for a root issue.
func (s *Store) snapshotRef(link domain.IssueLink) plumbing.ReferenceName {
	return plumbing.ReferenceName(s.refPrefix() + link.Owner + "/" + link.Repo + "/" + strconv.Itoa(link.Number))
}

// linkFromRef parses a snapshot ref name back into a link.
func (s *Store) linkFromRef(name plumbing.ReferenceName) (domain.IssueLink, bool) {
	rest, ok := strings.CutPrefix(string(name), s.refPrefix())
	if !ok {
		return domain.IssueLink{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return domain.IssueLink{}, false
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n <= 0 {
		return domain.IssueLink{}, false
	}
	return domain.IssueLink{Owner: parts[0], Repo: parts[1], Number: n}, true
}

// Load retrieves the snapshot of a root issue.
func (s *Store) Load(link domain.IssueLink) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, err := s.repo.Reference(s.snapshotRef(link), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("%s: %w", link, domain.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot ref: %w", err)
	}
	return s.decode(ref.Hash(), link)
}

// Save replaces the snapshot of a root issue.
func (s *Store) Save(snapshot *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(snapshotBlob{
		SavedAt: snapshot.SavedAt.UTC(),
		Link:    snapshot.Link.URL(),
		Content: snapshot.Content,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if s.encryptor != nil {
		data = s.encryptor.Encrypt(data)
	}

	hash, err := s.writeBlob(data)
	if err != nil {
		return err
	}

	ref := plumbing.NewHashReference(s.snapshotRef(snapshot.Link), hash)
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("set snapshot ref: %w", err)
	}
	return nil
}

// Delete removes the snapshot of a root issue.
func (s *Store) Delete(link domain.IssueLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.Storer.RemoveReference(s.snapshotRef(link))
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("remove snapshot ref: %w", err)
	}
	return nil
}

// List returns all snapshots in this namespace sorted by key.
func (s *Store) List() ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs, err := s.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}

	var snaps []*domain.Snapshot
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		link, ok := s.linkFromRef(ref.Name())
		if !ok {
			return nil // Skip foreign refs
		}
		snap, decodeErr := s.decode(ref.Hash(), link)
		if decodeErr != nil {
			return decodeErr
		}
		snaps = append(snaps, snap)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(snaps, func(a, b *domain.Snapshot) int {
		return strings.Compare(domain.SnapshotKey(a.Link), domain.SnapshotKey(b.Link))
	})
	return snaps, nil
}

func (s *Store) decode(hash plumbing.Hash, link domain.IssueLink) (*domain.Snapshot, error) {
	data, err := s.readBlob(hash)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", link, err)
	}
	if s.encryptor != nil {
		if data, err = s.encryptor.Decrypt(data); err != nil {
			return nil, fmt.Errorf("decrypt snapshot %s: %w", link, err)
		}
	}
	var blob snapshotBlob
	if err := yaml.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", link, err)
	}
	return &domain.Snapshot{
		Link:    link,
		SavedAt: blob.SavedAt,
		Content: blob.Content,
	}, nil
}

// writeBlob stores data as a blob object.
func (s *Store) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create blob writer: %w", err)
	}
	if _, writeErr := writer.Write(data); writeErr != nil {
		_ = writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("write blob: %w", writeErr)
	}
	_ = writer.Close()

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store blob: %w", err)
	}
	return hash, nil
}

// readBlob reads the full content of a blob.
func (s *Store) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	defer func() { _ = reader.Close() }()

	return io.ReadAll(reader)
}
