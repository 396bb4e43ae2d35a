package ports

import (
	"context"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// Renderer displays the progress of a run interactively.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start launches the renderer. It does not block.
	Start(ctx context.Context) error
	// Stop asks the renderer to shut down.
	Stop() error
	// Wait blocks until the renderer has terminated.
	Wait() error

	// OnPlanEmit announces the artifacts a run will visit, in order.
	OnPlanEmit(artifacts []string)
	// OnTaskStart is called when a node starts.
	OnTaskStart(artifact string, startTime time.Time)
	// OnTaskLog receives output written while a node is running.
	OnTaskLog(data []byte)
	// OnTaskComplete is called when a node finishes.
	OnTaskComplete(artifact string, state domain.NodeState, err error)
}
