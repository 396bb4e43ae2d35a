package domain

import "go.trai.ch/zerr"

var (
	// ErrMissingOutput is returned when a task is constructed without an output artifact.
	ErrMissingOutput = zerr.New("no output given")

	// ErrMissingAction is returned when a task is constructed without a run function.
	ErrMissingAction = zerr.New("no run function given")

	// ErrInvalidRequirement is returned when a requirement is nil.
	ErrInvalidRequirement = zerr.New("invalid requirement")

	// ErrCycleDetected is returned when the dependency edges are not acyclic.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrInvalidActionResult is returned when an action does not return a completion.
	ErrInvalidActionResult = zerr.New("action did not return a completion")

	// ErrMissingPrerequisite is returned when a prerequisite artifact does not exist.
	ErrMissingPrerequisite = zerr.New("missing prerequisite")

	// ErrOutputNotWritable is returned when a task captures stdout into an artifact that cannot be written.
	ErrOutputNotWritable = zerr.New("output is not writable")

	// ErrOutputNotProduced is returned when a command finished but its output file is still missing.
	ErrOutputNotProduced = zerr.New("output not produced")

	// ErrTaskExecutionFailed wraps any failure of a node during a run.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrUnknownNodeKind is returned when a node carries a kind the scheduler cannot dispatch.
	ErrUnknownNodeKind = zerr.New("unknown node kind")

	// ErrTaskAlreadyExists is returned when two tasks share a name.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrTaskNotFound is returned when a requested task is not declared in the taskfile.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrNoTarget is returned when no target was given and the taskfile has no default.
	ErrNoTarget = zerr.New("no target specified")

	// ErrUnknownStore is returned when a task declares an unsupported artifact store.
	ErrUnknownStore = zerr.New("unknown artifact store")

	// ErrInteractiveUnavailable is returned when an interactive run has no tracer provider to follow.
	ErrInteractiveUnavailable = zerr.New("interactive mode is not available")

	// ErrInvalidTaskfile is returned when the taskfile fails validation.
	ErrInvalidTaskfile = zerr.New("invalid taskfile")
)
