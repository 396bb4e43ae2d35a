package domain

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Completion is the pending result of an action.
// Wait blocks until the action has finished or ctx is done.
type Completion interface {
	Wait(ctx context.Context) error
}

type resolved struct {
	err error
}

func (r resolved) Wait(context.Context) error { return r.err }

// Resolved returns a Completion that has already finished with err.
func Resolved(err error) Completion {
	return resolved{err: err}
}

// Done returns a Completion that has already finished successfully.
func Done() Completion {
	return resolved{}
}

type async struct {
	done chan struct{}
	err  error
}

// Async runs fns concurrently and returns a Completion that resolves once all
// of them have returned. The first non-nil error wins.
func Async(fns ...func() error) Completion {
	c := &async{done: make(chan struct{})}

	var g errgroup.Group
	for _, fn := range fns {
		g.Go(fn)
	}

	go func() {
		c.err = g.Wait()
		close(c.done)
	}()

	return c
}

func (c *async) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
