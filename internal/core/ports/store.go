package ports

import "go.trai.ch/kiln/internal/core/domain"

// ArtifactStore resolves artifact identities to readable and writable artifacts.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ArtifactStore interface {
	// Artifact returns the artifact stored under id. It does not create it.
	Artifact(id string) (domain.ReadWriter, error)
}
