package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type memArtifact struct {
	id string

	mu     sync.Mutex
	exists bool
	err    error
	writes int
}

func (a *memArtifact) ID() string { return a.id }

func (a *memArtifact) Exists(context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exists, a.err
}

func (a *memArtifact) produce() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exists = true
	a.writes++
}

type recorder struct {
	mu     sync.Mutex
	calls  []string
	inputs map[string][]string
}

func newRecorder() *recorder {
	return &recorder{inputs: make(map[string][]string)}
}

func (r *recorder) action(fail error) domain.ActionFunc {
	return func(_ context.Context, output domain.Artifact, inputs []domain.Artifact) domain.Completion {
		r.mu.Lock()
		r.calls = append(r.calls, output.ID())
		ids := make([]string, len(inputs))
		for i, in := range inputs {
			ids[i] = in.ID()
		}
		r.inputs[output.ID()] = ids
		r.mu.Unlock()

		return domain.Async(func() error {
			if fail != nil {
				return fail
			}
			output.(*memArtifact).produce()
			return nil
		})
	}
}

type events struct {
	mu  sync.Mutex
	got []domain.TraceEvent
}

func (e *events) Report(_ context.Context, ev domain.TraceEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
}

func task(t *testing.T, out *memArtifact, run domain.ActionFunc, requires ...*domain.Node) *domain.Node {
	t.Helper()
	n, err := domain.NewTask(domain.TaskSpec{
		Output:   out,
		Requires: domain.Nodes(requires),
		Run:      run,
	})
	require.NoError(t, err)
	return n
}

func newScheduler(reporter ports.Reporter) *scheduler.Scheduler {
	return scheduler.NewScheduler(reporter, telemetry.NewNoOpTracer())
}

func TestScheduler_Run_ExecutesMissingAndSkipsPresent(t *testing.T) {
	rec := newRecorder()
	a := &memArtifact{id: "A"}
	b := &memArtifact{id: "B", exists: true}
	r := &memArtifact{id: "R"}

	nodeA := task(t, a, rec.action(nil))
	nodeB := task(t, b, rec.action(nil))
	root := task(t, r, rec.action(nil), nodeA, nodeB)

	s := newScheduler(nil)
	require.NoError(t, s.Run(context.Background(), root, domain.ExecutionOptions{}))

	assert.Equal(t, []string{"A", "R"}, rec.calls)
	assert.Equal(t, []string{"A", "B"}, rec.inputs["R"])
	assert.Equal(t, 1, a.writes)
	assert.Equal(t, 0, b.writes)
	assert.Equal(t, 1, r.writes)

	assert.Equal(t, domain.NodeStateSucceeded, s.State(nodeA))
	assert.Equal(t, domain.NodeStateSatisfied, s.State(nodeB))
	assert.Equal(t, domain.NodeStateSucceeded, s.State(root))
}

func TestScheduler_Run_FailureStopsDependents(t *testing.T) {
	rec := newRecorder()
	boom := errors.New("boom")

	d := &memArtifact{id: "D"}
	c := &memArtifact{id: "C"}
	r := &memArtifact{id: "R"}

	nodeD := task(t, d, rec.action(boom))
	nodeC := task(t, c, rec.action(nil), nodeD)
	root := task(t, r, rec.action(nil), nodeC)

	s := newScheduler(nil)
	err := s.Run(context.Background(), root, domain.ExecutionOptions{})
	require.Error(t, err)

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, domain.ErrTaskExecutionFailed)
	assert.Equal(t, []string{"D"}, rec.calls)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "D", zErr.Metadata()["artifact"])

	assert.Equal(t, domain.NodeStateFailed, s.State(nodeD))
	assert.Equal(t, domain.NodeStatePending, s.State(nodeC))
	assert.Equal(t, domain.NodeStatePending, s.State(root))
}

func TestScheduler_Run_Order(t *testing.T) {
	rec := newRecorder()

	d := task(t, &memArtifact{id: "D"}, rec.action(nil))
	c := task(t, &memArtifact{id: "C"}, rec.action(nil), d)
	root := task(t, &memArtifact{id: "R"}, rec.action(nil), c)

	require.NoError(t, newScheduler(nil).Run(context.Background(), root, domain.ExecutionOptions{}))
	assert.Equal(t, []string{"D", "C", "R"}, rec.calls)
}

func TestScheduler_Run_DiamondRunsSharedOnce(t *testing.T) {
	rec := newRecorder()

	shared := task(t, &memArtifact{id: "shared"}, rec.action(nil))
	left := task(t, &memArtifact{id: "left"}, rec.action(nil), shared)
	right := task(t, &memArtifact{id: "right"}, rec.action(nil), shared)
	root := task(t, &memArtifact{id: "root"}, rec.action(nil), left, right)

	require.NoError(t, newScheduler(nil).Run(context.Background(), root, domain.ExecutionOptions{}))

	require.Len(t, rec.calls, 4)
	assert.Equal(t, "shared", rec.calls[0])
	assert.Equal(t, "root", rec.calls[3])
}

func TestScheduler_Run_SkipWhenPresent(t *testing.T) {
	for _, opts := range []domain.ExecutionOptions{{}, {DryRun: true}, {Verbose: true}} {
		rec := newRecorder()
		out := &memArtifact{id: "out", exists: true}
		root := task(t, out, rec.action(nil))

		ev := &events{}
		require.NoError(t, newScheduler(ev).Run(context.Background(), root, opts))
		assert.Empty(t, rec.calls)
		assert.Equal(t, 0, out.writes)

		if opts.Traces() {
			assert.Equal(t, []domain.TraceEvent{{Kind: domain.TraceSkip, Artifact: "out"}}, ev.got)
		} else {
			assert.Empty(t, ev.got)
		}
	}
}

func TestScheduler_Run_DryRunDoesNotInvoke(t *testing.T) {
	rec := newRecorder()
	dep := task(t, &memArtifact{id: "dep"}, rec.action(nil))
	out := &memArtifact{id: "out"}
	root := task(t, out, rec.action(nil), dep)

	ev := &events{}
	s := newScheduler(ev)
	require.NoError(t, s.Run(context.Background(), root, domain.ExecutionOptions{DryRun: true}))

	assert.Empty(t, rec.calls)
	assert.Equal(t, 0, out.writes)
	assert.Equal(t, []domain.TraceEvent{
		{Kind: domain.TraceWouldRun, Artifact: "dep"},
		{Kind: domain.TraceWouldRun, Artifact: "out"},
	}, ev.got)
	assert.Equal(t, domain.NodeStatePending, s.State(root))
}

func TestScheduler_Run_VerboseTracesRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	reporter := mocks.NewMockReporter(ctrl)

	rec := newRecorder()
	pre := &memArtifact{id: "input.txt", exists: true}
	prereq, err := domain.NewPrerequisite(pre)
	require.NoError(t, err)
	root := task(t, &memArtifact{id: "out"}, rec.action(nil), prereq)

	gomock.InOrder(
		reporter.EXPECT().Report(gomock.Any(), domain.TraceEvent{Kind: domain.TraceExist, Artifact: "input.txt"}),
		reporter.EXPECT().Report(gomock.Any(), domain.TraceEvent{Kind: domain.TraceRun, Artifact: "out"}),
	)

	s := newScheduler(reporter)
	require.NoError(t, s.Run(context.Background(), root, domain.ExecutionOptions{Verbose: true}))
	assert.Equal(t, domain.NodeStateVerified, s.State(prereq))
}

func TestScheduler_Run_NilCompletion(t *testing.T) {
	out := &memArtifact{id: "out"}
	root := task(t, out, func(context.Context, domain.Artifact, []domain.Artifact) domain.Completion {
		return nil
	})

	err := newScheduler(nil).Run(context.Background(), root, domain.ExecutionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidActionResult)
}

// waitCompletion is a pointer Completion; a nil *waitCompletion is not awaitable.
type waitCompletion struct{ err error }

func (c *waitCompletion) Wait(context.Context) error { return c.err }

func TestScheduler_Run_TypedNilCompletion(t *testing.T) {
	out := &memArtifact{id: "out"}
	root := task(t, out, func(context.Context, domain.Artifact, []domain.Artifact) domain.Completion {
		var c *waitCompletion
		return c
	})

	s := newScheduler(nil)
	var err error
	require.NotPanics(t, func() {
		err = s.Run(context.Background(), root, domain.ExecutionOptions{})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidActionResult)
	assert.ErrorIs(t, err, domain.ErrTaskExecutionFailed)
	assert.Equal(t, domain.NodeStateFailed, s.State(root))

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "out", zErr.Metadata()["artifact"])
}

func TestScheduler_Run_NilTracer(t *testing.T) {
	rec := newRecorder()
	out := &memArtifact{id: "out"}
	root := task(t, out, rec.action(nil))

	s := scheduler.NewScheduler(nil, nil)
	require.NotPanics(t, func() {
		require.NoError(t, s.Run(context.Background(), root, domain.ExecutionOptions{}))
	})
	assert.Equal(t, domain.NodeStateSucceeded, s.State(root))
}

func TestScheduler_Run_ActionFailureIsNotInvalidResult(t *testing.T) {
	boom := errors.New("write failed")
	root := task(t, &memArtifact{id: "out"}, func(context.Context, domain.Artifact, []domain.Artifact) domain.Completion {
		return domain.Resolved(boom)
	})

	err := newScheduler(nil).Run(context.Background(), root, domain.ExecutionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrInvalidActionResult)
}

func TestScheduler_Run_ExistsError(t *testing.T) {
	probe := errors.New("permission denied")
	rec := newRecorder()
	root := task(t, &memArtifact{id: "out", err: probe}, rec.action(nil))

	s := newScheduler(nil)
	err := s.Run(context.Background(), root, domain.ExecutionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, probe)
	assert.Empty(t, rec.calls)
	assert.Equal(t, domain.NodeStateFailed, s.State(root))
}

func TestScheduler_Run_MissingPrerequisite(t *testing.T) {
	for _, opts := range []domain.ExecutionOptions{{}, {DryRun: true}} {
		rec := newRecorder()
		prereq, err := domain.NewPrerequisite(&memArtifact{id: "data/raw.csv"})
		require.NoError(t, err)
		root := task(t, &memArtifact{id: "out"}, rec.action(nil), prereq)

		ev := &events{}
		err = newScheduler(ev).Run(context.Background(), root, opts)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMissingPrerequisite)
		assert.Contains(t, err.Error(), "data/raw.csv")
		assert.Empty(t, rec.calls)

		if opts.DryRun {
			assert.Equal(t, []domain.TraceEvent{{Kind: domain.TraceMissing, Artifact: "data/raw.csv"}}, ev.got)
		}
	}
}

func TestScheduler_Run_PrerequisiteRoot(t *testing.T) {
	prereq, err := domain.NewPrerequisite(&memArtifact{id: "in", exists: true})
	require.NoError(t, err)

	s := newScheduler(nil)
	require.NoError(t, s.Run(context.Background(), prereq, domain.ExecutionOptions{}))
	assert.Equal(t, domain.NodeStateVerified, s.State(prereq))
}

func TestScheduler_Run_NilRoot(t *testing.T) {
	err := newScheduler(nil).Run(context.Background(), nil, domain.ExecutionOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidRequirement)
}

func TestScheduler_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	root := task(t, &memArtifact{id: "out"}, func(context.Context, domain.Artifact, []domain.Artifact) domain.Completion {
		return domain.Async(func() error {
			<-block
			return nil
		})
	})

	err := newScheduler(nil).Run(ctx, root, domain.ExecutionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_Run_ResetsStateBetweenRuns(t *testing.T) {
	out := &memArtifact{id: "out"}
	root := task(t, out, newRecorder().action(nil))

	s := newScheduler(nil)
	require.NoError(t, s.Run(context.Background(), root, domain.ExecutionOptions{}))
	assert.Equal(t, domain.NodeStateSucceeded, s.State(root))

	require.NoError(t, s.Run(context.Background(), root, domain.ExecutionOptions{}))
	assert.Equal(t, domain.NodeStateSatisfied, s.State(root))
}

func TestScheduler_Run_Spans(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	root := task(t, &memArtifact{id: "out"}, newRecorder().action(nil))

	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"out"})
	tracer.EXPECT().Start(gomock.Any(), "out", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, opts ...ports.SpanOption) (context.Context, ports.Span) {
			cfg := &ports.SpanConfig{}
			for _, opt := range opts {
				opt(cfg)
			}
			assert.Equal(t, "task", cfg.Attributes[ports.AttrNodeKind])
			return ctx, span
		})
	span.EXPECT().SetAttribute(ports.AttrNodeState, string(domain.NodeStateSucceeded))
	span.EXPECT().End()

	s := scheduler.NewScheduler(nil, tracer)
	require.NoError(t, s.Run(context.Background(), root, domain.ExecutionOptions{}))
}

func TestScheduler_Run_SpanRecordsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	prereq, err := domain.NewPrerequisite(&memArtifact{id: "in"})
	require.NoError(t, err)

	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"in"})
	tracer.EXPECT().Start(gomock.Any(), "in", gomock.Any()).Return(context.Background(), span)
	span.EXPECT().RecordError(gomock.Any())
	span.EXPECT().SetAttribute(ports.AttrNodeState, string(domain.NodeStateFailed))
	span.EXPECT().End()

	s := scheduler.NewScheduler(nil, tracer)
	require.ErrorIs(t, s.Run(context.Background(), prereq, domain.ExecutionOptions{}), domain.ErrMissingPrerequisite)
}

func TestScheduler_CheckStatus(t *testing.T) {
	rec := newRecorder()
	d := &memArtifact{id: "D", exists: true}
	c := &memArtifact{id: "C"}
	r := &memArtifact{id: "R"}

	nodeD := task(t, d, rec.action(nil))
	nodeC := task(t, c, rec.action(nil), nodeD)
	root := task(t, r, rec.action(nil), nodeC)

	statuses, err := newScheduler(nil).CheckStatus(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []domain.ArtifactStatus{
		{ID: "D", Complete: true},
		{ID: "C", Complete: false},
		{ID: "R", Complete: false},
	}, statuses)
	assert.Empty(t, rec.calls)
	assert.Equal(t, 0, d.writes+c.writes+r.writes)
}

func TestPlan_DropsNull(t *testing.T) {
	root := task(t, &memArtifact{id: "only"}, newRecorder().action(nil))

	order, err := scheduler.Plan(root)
	require.NoError(t, err)
	require.Len(t, order, 1)
	assert.Same(t, root, order[0])
}
