// Package app implements the application layer for kiln.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/tui"       //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// AttrRunID is the span attribute carrying the id of a single invocation.
const AttrRunID = "kiln.run_id"

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scheduler    *scheduler.Scheduler
	logger       ports.Logger
	tracer       ports.Tracer
	provider     *sdktrace.TracerProvider
	teaOptions   []tea.ProgramOption
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	logger ports.Logger,
	tracer ports.Tracer,
) *App {
	return &App{
		configLoader: loader,
		scheduler:    sched,
		logger:       logger,
		tracer:       tracer,
	}
}

// WithProvider sets the tracer provider node spans are recorded on.
// Interactive runs attach the TUI to it.
func (a *App) WithProvider(p *sdktrace.TracerProvider) *App {
	a.provider = p
	return a
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// RunOptions configures a single invocation.
type RunOptions struct {
	// File is the path of the taskfile.
	File string
	// Target names the task to build. Empty selects the taskfile's default.
	Target string
	// Interactive shows the progress of the run in a terminal UI.
	Interactive bool

	domain.ExecutionOptions
}

// Run loads the taskfile and builds the target task and everything it requires.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	runID := uuid.NewString()
	ctx, span := a.tracer.Start(ctx, "run", ports.WithAttribute(AttrRunID, runID))
	defer span.End()

	root, err := a.resolve(opts.File, opts.Target)
	if err != nil {
		span.RecordError(err)
		return zerr.With(err, "run_id", runID)
	}

	a.logger.Info(fmt.Sprintf("run %s: building %s", runID, root.ID()))

	run := a.scheduler.Run
	if opts.Interactive {
		run = a.runInteractive
	}

	if err := run(ctx, root, opts.ExecutionOptions); err != nil {
		span.RecordError(err)
		return zerr.With(err, "run_id", runID)
	}

	if opts.DryRun {
		a.logger.Info(fmt.Sprintf("run %s: dry run complete", runID))
		return nil
	}
	a.logger.Info(fmt.Sprintf("run %s: %s is up to date", runID, root.ID()))
	return nil
}

// Status reports, in execution order, which artifacts required by the target exist.
func (a *App) Status(ctx context.Context, opts RunOptions) ([]domain.ArtifactStatus, error) {
	root, err := a.resolve(opts.File, opts.Target)
	if err != nil {
		return nil, err
	}

	statuses, err := a.scheduler.CheckStatus(ctx, root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to check status")
	}
	return statuses, nil
}

func (a *App) resolve(file, target string) (*domain.Node, error) {
	catalog, err := a.configLoader.Load(file)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	root, err := catalog.Target(target)
	if err != nil {
		return nil, zerr.With(err, "file", file)
	}
	return root, nil
}

// outputSetter is implemented by loggers whose destination can be redirected.
type outputSetter interface {
	SetOutput(w io.Writer)
}

// runInteractive runs the scheduler while a TUI follows the node spans.
// Log output is routed into the TUI for the duration of the run.
func (a *App) runInteractive(ctx context.Context, root *domain.Node, opts domain.ExecutionOptions) error {
	if a.provider == nil {
		return domain.ErrInteractiveUnavailable
	}

	order, err := scheduler.Plan(root)
	if err != nil {
		return err
	}
	ids := make([]string, len(order))
	for i, n := range order {
		ids[i] = n.ID()
	}

	// Quitting the TUI cancels the run.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewModel()
	renderer := tui.NewRenderer(&model, append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)...)

	bridge := telemetry.NewBridge(renderer)
	a.provider.RegisterSpanProcessor(bridge)
	defer a.provider.UnregisterSpanProcessor(bridge)

	if err := renderer.Start(ctx); err != nil {
		return zerr.Wrap(err, "failed to start renderer")
	}
	done := make(chan error, 1)
	go func() {
		done <- renderer.Wait()
		cancel()
	}()

	renderer.OnPlanEmit(ids)

	if l, ok := a.logger.(outputSetter); ok {
		l.SetOutput(rendererWriter{renderer})
		defer l.SetOutput(os.Stderr)
	}

	runErr := a.scheduler.Run(ctx, root, opts)

	_ = renderer.Stop()
	if err := <-done; err != nil && runErr == nil {
		return zerr.Wrap(err, "renderer failed")
	}
	return runErr
}

// rendererWriter adapts a renderer to an io.Writer for log output.
type rendererWriter struct {
	renderer ports.Renderer
}

func (w rendererWriter) Write(p []byte) (int, error) {
	w.renderer.OnTaskLog(p)
	return len(p), nil
}
