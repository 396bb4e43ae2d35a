// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

// Command is a process invocation declared by a task.
type Command struct {
	Args []string
	Dir  string
	Env  map[string]string
}

// Executor defines the interface for running task commands.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command. When stdout is nil the command's standard
	// output is forwarded to the logger.
	//
	// It returns an error if the command cannot be started or exits non-zero.
	Execute(ctx context.Context, cmd Command, stdout io.Writer) error
}
