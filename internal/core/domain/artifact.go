package domain

import "context"

// Artifact is the output location of a task.
// The engine only ever asks whether it exists.
type Artifact interface {
	// ID returns a stable, human-readable identity (a path, a key, a URL).
	ID() string
	// Exists reports whether the artifact has already been produced.
	Exists(ctx context.Context) (bool, error)
}

// ReadWriter is an Artifact whose content can be read and written.
// Actions use it to consume their inputs and produce their output.
type ReadWriter interface {
	Artifact
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// nullArtifact backs the Null node. It always exists and has no identity.
type nullArtifact struct{}

func (nullArtifact) ID() string { return "" }

func (nullArtifact) Exists(context.Context) (bool, error) { return true, nil }
