// Package kiln builds artifacts from a graph of tasks.
//
// A task declares the artifact it produces, the tasks it requires and an
// action that produces the artifact from the outputs of its requirements.
// Run executes every task required by a root, one at a time in dependency
// order, and skips tasks whose output already exists.
package kiln

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
)

type (
	// Node is a task, a prerequisite, or the empty Null node.
	Node = domain.Node
	// Nodes is an ordered list of requirements.
	Nodes = domain.Nodes
	// Requires is satisfied by a single *Node or by Nodes.
	Requires = domain.Requires
	// Artifact is the output location of a task.
	Artifact = domain.Artifact
	// ReadWriter is an Artifact whose content can be read and written.
	ReadWriter = domain.ReadWriter
	// TaskSpec declares a task.
	TaskSpec = domain.TaskSpec
	// ActionFunc produces a task's output from its inputs.
	ActionFunc = domain.ActionFunc
	// Completion is the pending result of an action.
	Completion = domain.Completion
	// Options are passed uniformly to every node of a run.
	Options = domain.ExecutionOptions
	// ArtifactStatus reports whether an artifact exists.
	ArtifactStatus = domain.ArtifactStatus
	// TraceEvent is a single trace line of a verbose or dry run.
	TraceEvent = domain.TraceEvent
)

// Errors returned by task construction and runs. Use errors.Is to match them.
var (
	ErrMissingOutput       = domain.ErrMissingOutput
	ErrMissingAction       = domain.ErrMissingAction
	ErrInvalidRequirement  = domain.ErrInvalidRequirement
	ErrCycleDetected       = domain.ErrCycleDetected
	ErrInvalidActionResult = domain.ErrInvalidActionResult
	ErrMissingPrerequisite = domain.ErrMissingPrerequisite
	ErrTaskExecutionFailed = domain.ErrTaskExecutionFailed
)

// CreateTask creates a task node.
func CreateTask(spec TaskSpec) (*Node, error) {
	return domain.NewTask(spec)
}

// CreatePrerequisiteTask creates a node that only checks that output exists.
func CreatePrerequisiteTask(output Artifact) (*Node, error) {
	return domain.NewPrerequisite(output)
}

// CreatePrerequisiteFile creates a prerequisite on the local file at path.
func CreatePrerequisiteFile(path string) (*Node, error) {
	return domain.NewPrerequisite(fs.NewFile(path))
}

// File returns a local file artifact.
func File(path string) *fs.File {
	return fs.NewFile(path)
}

// Null returns a node that requires nothing and does nothing.
func Null() *Node {
	return domain.Null()
}

// Done returns a Completion that has already succeeded.
func Done() Completion {
	return domain.Done()
}

// Resolved returns a Completion that has already finished with err.
func Resolved(err error) Completion {
	return domain.Resolved(err)
}

// Async runs fns concurrently and completes when all of them have returned.
// The first error wins.
func Async(fns ...func() error) Completion {
	return domain.Async(fns...)
}

type runConfig struct {
	reporter ports.Reporter
}

// RunOption configures Run.
type RunOption func(*runConfig)

// WithReporter writes trace lines to w instead of stdout.
func WithReporter(w io.Writer) RunOption {
	return func(c *runConfig) {
		c.reporter = linear.NewReporter(w)
	}
}

// Run executes root and everything it requires.
// The first failing node aborts the run; the returned error matches
// ErrTaskExecutionFailed and the node's own error.
func Run(ctx context.Context, root *Node, opts Options, runOpts ...RunOption) error {
	cfg := runConfig{}
	for _, o := range runOpts {
		o(&cfg)
	}
	if cfg.reporter == nil {
		cfg.reporter = linear.NewReporter(nil)
	}

	sched := scheduler.NewScheduler(cfg.reporter, telemetry.NewOTelTracer(telemetry.InstrumentationName))
	return sched.Run(ctx, root, opts)
}

// CheckStatus reports, in execution order, whether each artifact required by root exists.
func CheckStatus(ctx context.Context, root *Node) ([]ArtifactStatus, error) {
	sched := scheduler.NewScheduler(nil, telemetry.NewOTelTracer(telemetry.InstrumentationName))
	return sched.CheckStatus(ctx, root)
}
