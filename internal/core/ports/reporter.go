package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Reporter receives the human-readable trace lines of a run
// (skip, run, would-run, exist, missing).
//
//go:generate go run go.uber.org/mock/mockgen -source=reporter.go -destination=mocks/mock_reporter.go -package=mocks
type Reporter interface {
	Report(ctx context.Context, event domain.TraceEvent)
}
