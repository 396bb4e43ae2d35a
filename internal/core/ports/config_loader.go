package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading a taskfile.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the taskfile at path and returns its task catalog.
	Load(path string) (*domain.Catalog, error)
}
