package domain

// TraceKind classifies a trace line emitted while running a node.
type TraceKind string

const (
	// TraceSkip is emitted when a task's output already exists.
	TraceSkip TraceKind = "skip"
	// TraceRun is emitted right before a task's action is invoked.
	TraceRun TraceKind = "run"
	// TraceWouldRun is emitted in dry-run mode instead of invoking the action.
	TraceWouldRun TraceKind = "would-run"
	// TraceExist is emitted when a prerequisite is present.
	TraceExist TraceKind = "exist"
	// TraceMissing is emitted when a prerequisite is absent.
	TraceMissing TraceKind = "missing"
)

// TraceEvent is a single human-readable trace line.
type TraceEvent struct {
	Kind     TraceKind
	Artifact string
}
