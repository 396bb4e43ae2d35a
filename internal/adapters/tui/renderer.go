package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer wraps the TUI Bubble Tea model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		errCh:   make(chan error, 1),
	}
}

// Start launches the TUI in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the TUI to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the TUI has terminated.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlanEmit forwards the planned artifacts to the TUI.
func (r *Renderer) OnPlanEmit(artifacts []string) {
	r.program.Send(MsgInitTasks{Tasks: artifacts})
}

// OnTaskStart forwards node start events to the TUI.
func (r *Renderer) OnTaskStart(artifact string, _ time.Time) {
	r.program.Send(MsgTaskStart{Name: artifact})
}

// OnTaskLog forwards output to the TUI. data is copied.
func (r *Renderer) OnTaskLog(data []byte) {
	r.program.Send(MsgTaskLog{Data: append([]byte(nil), data...)})
}

// OnTaskComplete forwards node completion events to the TUI.
func (r *Renderer) OnTaskComplete(artifact string, state domain.NodeState, err error) {
	r.program.Send(MsgTaskComplete{Name: artifact, State: state, Err: err})
}
