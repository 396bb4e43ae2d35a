// Package cas implements a content-addressed artifact store.
package cas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	indexFile = "index.json"
	dirPerm   = 0o750
	filePerm  = 0o644
)

var _ ports.ArtifactStore = (*Store)(nil)

// Entry describes a blob recorded in the store index.
type Entry struct {
	ID       string    `json:"id"`
	Size     int       `json:"size"`
	Checksum string    `json:"checksum"`
	Written  time.Time `json:"written"`
}

// Store keeps artifacts as blobs keyed by the xxhash of their identity.
type Store struct {
	root  string
	mu    sync.RWMutex
	index map[string]Entry
}

// NewStore opens the store rooted at root, loading its index if present.
func NewStore(root string) (*Store, error) {
	s := &Store{
		root:  filepath.Clean(root),
		index: make(map[string]Entry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Key returns the blob key of an artifact identity.
func Key(id string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(id))
}

func (s *Store) blobPath(key string) string {
	return filepath.Join(s.root, key[:2], key)
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(filepath.Join(s.root, indexFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read store index")
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.index); err != nil {
		return zerr.Wrap(err, "failed to unmarshal store index")
	}

	return nil
}

// save must be called with s.mu held.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal store index")
	}

	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return zerr.Wrap(err, "failed to create store directory")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(filepath.Join(s.root, indexFile), data, filePerm); err != nil {
		return zerr.Wrap(err, "failed to write store index")
	}

	return nil
}

// Artifact returns the blob artifact for id. The blob need not exist yet.
func (s *Store) Artifact(id string) (domain.ReadWriter, error) {
	if id == "" {
		return nil, domain.ErrMissingOutput
	}
	return &Blob{store: s, id: id, key: Key(id)}, nil
}

// Lookup returns the index entry recorded for id.
func (s *Store) Lookup(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.index[Key(id)]
	return e, ok
}

func (s *Store) put(key string, e Entry, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.blobPath(key)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create blob directory"), "artifact", e.ID)
	}
	//nolint:gosec // Path is derived from a hash
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write blob"), "artifact", e.ID)
	}

	s.index[key] = e
	return s.save()
}

// Blob is an artifact stored in a Store.
type Blob struct {
	store *Store
	id    string
	key   string
}

// ID returns the identity the blob was requested with.
func (b *Blob) ID() string {
	return b.id
}

// Exists reports whether the blob has been written.
func (b *Blob) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(b.store.blobPath(b.key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to stat blob"), "artifact", b.id)
	}
	return true, nil
}

// Read returns the blob content.
func (b *Blob) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.store.blobPath(b.key))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read blob"), "artifact", b.id)
	}
	return data, nil
}

// Write stores data as the blob content and records it in the index.
func (b *Blob) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.store.put(b.key, Entry{
		ID:       b.id,
		Size:     len(data),
		Checksum: fmt.Sprintf("%016x", xxhash.Sum64(data)),
		Written:  time.Now().UTC(),
	}, data)
}
