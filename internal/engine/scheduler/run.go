package scheduler

import (
	"context"
	"reflect"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// execute runs a single node inside its own span.
func (s *Scheduler) execute(ctx context.Context, n *domain.Node, opts domain.ExecutionOptions) (err error) {
	ctx, span := s.tracer.Start(ctx, n.ID(), ports.WithAttribute(ports.AttrNodeKind, n.Kind().String()))
	defer func() {
		if err != nil {
			s.setState(n, domain.NodeStateFailed)
			span.RecordError(err)
		}
		span.SetAttribute(ports.AttrNodeState, string(s.State(n)))
		span.End()
	}()

	switch n.Kind() {
	case domain.KindTask:
		return s.runTask(ctx, n, opts)
	case domain.KindPrerequisite:
		return s.runPrerequisite(ctx, n, opts)
	case domain.KindNull:
		return nil
	default:
		return zerr.With(zerr.Wrap(domain.ErrUnknownNodeKind, n.Kind().String()), "artifact", n.ID())
	}
}

func (s *Scheduler) runTask(ctx context.Context, n *domain.Node, opts domain.ExecutionOptions) error {
	exists, err := n.Output().Exists(ctx)
	if err != nil {
		return zerr.Wrap(err, "failed to check output")
	}

	if exists {
		s.trace(ctx, opts, domain.TraceSkip, n)
		s.setState(n, domain.NodeStateSatisfied)
		return nil
	}

	if opts.DryRun {
		s.trace(ctx, opts, domain.TraceWouldRun, n)
		return nil
	}

	s.trace(ctx, opts, domain.TraceRun, n)
	s.setState(n, domain.NodeStateExecuting)

	c := n.Action()(ctx, n.Output(), n.Inputs())
	if isNil(c) {
		return zerr.With(zerr.Wrap(domain.ErrInvalidActionResult, "nil completion"), "artifact", n.ID())
	}
	if err := c.Wait(ctx); err != nil {
		return err
	}

	s.setState(n, domain.NodeStateSucceeded)
	return nil
}

// runPrerequisite only verifies the output. Dry-run does not change its behaviour.
func (s *Scheduler) runPrerequisite(ctx context.Context, n *domain.Node, opts domain.ExecutionOptions) error {
	exists, err := n.Output().Exists(ctx)
	if err != nil {
		return zerr.Wrap(err, "failed to check prerequisite")
	}

	if !exists {
		s.trace(ctx, opts, domain.TraceMissing, n)
		return zerr.With(zerr.Wrap(domain.ErrMissingPrerequisite, n.ID()), "artifact", n.ID())
	}

	s.trace(ctx, opts, domain.TraceExist, n)
	s.setState(n, domain.NodeStateVerified)
	return nil
}

// isNil reports whether c is nil or wraps a nil reference value.
func isNil(c domain.Completion) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
