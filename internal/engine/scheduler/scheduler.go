// Package scheduler implements the sequential node execution engine.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Default tracer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Scheduler executes the transitive closure of a root node in dependency order.
type Scheduler struct {
	reporter ports.Reporter
	tracer   ports.Tracer

	mu    sync.RWMutex
	state map[*domain.Node]domain.NodeState
}

// NewScheduler creates a new Scheduler.
// A nil reporter discards trace events and a nil tracer records no spans.
func NewScheduler(reporter ports.Reporter, tracer ports.Tracer) *Scheduler {
	if reporter == nil {
		reporter = discardReporter{}
	}
	if tracer == nil {
		tracer = telemetry.NewNoOpTracer()
	}
	return &Scheduler{
		reporter: reporter,
		tracer:   tracer,
		state:    make(map[*domain.Node]domain.NodeState),
	}
}

// WithReporter returns a Scheduler sharing s's tracer that sends trace events to reporter.
func (s *Scheduler) WithReporter(reporter ports.Reporter) *Scheduler {
	return NewScheduler(reporter, s.tracer)
}

// Plan builds the dependency graph of root and returns its execution order
// without the synthetic Null node.
func Plan(root *domain.Node) ([]*domain.Node, error) {
	if root == nil {
		return nil, zerr.Wrap(domain.ErrInvalidRequirement, "nil root")
	}

	g := domain.NewGraph()
	g.AddNode(root)

	sorted, err := g.Sort()
	if err != nil {
		return nil, err
	}

	order := make([]*domain.Node, 0, len(sorted))
	for _, n := range sorted {
		if n.Kind() == domain.KindNull {
			continue
		}
		order = append(order, n)
	}
	return order, nil
}

// Run executes every node required by root, one at a time, in dependency order.
// The first failing node aborts the run. The returned error matches both
// domain.ErrTaskExecutionFailed and the node's own error.
func (s *Scheduler) Run(ctx context.Context, root *domain.Node, opts domain.ExecutionOptions) error {
	order, err := Plan(root)
	if err != nil {
		return err
	}

	s.reset(order)

	ids := make([]string, len(order))
	for i, n := range order {
		ids[i] = n.ID()
	}
	s.tracer.EmitPlan(ctx, ids)

	for _, n := range order {
		if err := s.execute(ctx, n, opts); err != nil {
			return zerr.With(fmt.Errorf("%w: %w", domain.ErrTaskExecutionFailed, err), "artifact", n.ID())
		}
	}
	return nil
}

// CheckStatus reports, in execution order, whether each node's output exists.
// Nothing is executed.
func (s *Scheduler) CheckStatus(ctx context.Context, root *domain.Node) ([]domain.ArtifactStatus, error) {
	order, err := Plan(root)
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.ArtifactStatus, 0, len(order))
	for _, n := range order {
		exists, err := n.Output().Exists(ctx)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to check artifact"), "artifact", n.ID())
		}
		statuses = append(statuses, domain.ArtifactStatus{ID: n.ID(), Complete: exists})
	}
	return statuses, nil
}

// State returns the state n reached in the most recent run.
func (s *Scheduler) State(n *domain.Node) domain.NodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.state[n]; ok {
		return st
	}
	return domain.NodeStatePending
}

func (s *Scheduler) reset(order []*domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = make(map[*domain.Node]domain.NodeState, len(order))
	for _, n := range order {
		s.state[n] = domain.NodeStatePending
	}
}

func (s *Scheduler) setState(n *domain.Node, st domain.NodeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[n] = st
}

func (s *Scheduler) trace(ctx context.Context, opts domain.ExecutionOptions, kind domain.TraceKind, n *domain.Node) {
	if !opts.Traces() {
		return
	}
	s.reporter.Report(ctx, domain.TraceEvent{Kind: kind, Artifact: n.ID()})
}

type discardReporter struct{}

func (discardReporter) Report(context.Context, domain.TraceEvent) {}
