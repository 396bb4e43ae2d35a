package fs

import (
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.ArtifactStore = (*Store)(nil)

// Store hands out File artifacts relative to a root directory.
type Store struct {
	root string
}

// NewStore creates a new Store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Artifact returns the file id below the store root. The artifact keeps id as its identity.
func (s *Store) Artifact(id string) (domain.ReadWriter, error) {
	path := id
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, id)
	}
	return &File{id: id, path: path}, nil
}
