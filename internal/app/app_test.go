package app_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	app    *app.App
	loader *mocks.MockConfigLoader
	logger *mocks.MockLogger
	span   *mocks.MockSpan
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	loader := mocks.NewMockConfigLoader(ctrl)
	log := mocks.NewMockLogger(ctrl)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	tracer.EXPECT().Start(gomock.Any(), "run", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, opts ...ports.SpanOption) (context.Context, ports.Span) {
			var cfg ports.SpanConfig
			for _, opt := range opts {
				opt(&cfg)
			}
			assert.NotEmpty(t, cfg.Attributes[app.AttrRunID])
			return ctx, span
		}).AnyTimes()
	span.EXPECT().End().AnyTimes()

	sched := scheduler.NewScheduler(nil, telemetry.NewNoOpTracer())

	return &fixture{
		app:    app.New(loader, sched, log, tracer),
		loader: loader,
		logger: log,
		span:   span,
		dir:    t.TempDir(),
	}
}

// catalog declares "raw" (a prerequisite) and "report", which copies raw.
func (f *fixture) catalog(t *testing.T, fail error) *domain.Catalog {
	t.Helper()

	raw, err := domain.NewPrerequisite(fs.NewFile(filepath.Join(f.dir, "raw.txt")))
	require.NoError(t, err)

	report, err := domain.NewTask(domain.TaskSpec{
		Output:   fs.NewFile(filepath.Join(f.dir, "report.txt")),
		Requires: raw,
		Run: func(ctx context.Context, output domain.Artifact, inputs []domain.Artifact) domain.Completion {
			return domain.Async(func() error {
				if fail != nil {
					return fail
				}
				data, err := inputs[0].(domain.ReadWriter).Read(ctx)
				if err != nil {
					return err
				}
				return output.(domain.ReadWriter).Write(ctx, data)
			})
		},
	})
	require.NoError(t, err)

	c := domain.NewCatalog()
	require.NoError(t, c.Add("raw", raw))
	require.NoError(t, c.Add("report", report))
	return c
}

func (f *fixture) writeRaw(t *testing.T) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "raw.txt"), []byte("a,b\n"), 0o600))
}

func TestApp_Run_Success(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t)

	f.loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, nil), nil)
	f.logger.EXPECT().Info(gomock.Any()).Times(2)

	err := f.app.Run(context.Background(), app.RunOptions{File: "kiln.yaml", Target: "report"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.dir, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestApp_Run_DefaultTarget(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t)

	c := f.catalog(t, nil)
	c.SetDefault("report")
	f.loader.EXPECT().Load("kiln.yaml").Return(c, nil)
	f.logger.EXPECT().Info(gomock.Any()).Times(2)

	require.NoError(t, f.app.Run(context.Background(), app.RunOptions{File: "kiln.yaml"}))
	assert.FileExists(t, filepath.Join(f.dir, "report.txt"))
}

func TestApp_Run_DryRun(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t)

	f.loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, nil), nil)
	f.logger.EXPECT().Info(gomock.Any()).Times(2)

	err := f.app.Run(context.Background(), app.RunOptions{
		File:             "kiln.yaml",
		Target:           "report",
		ExecutionOptions: domain.ExecutionOptions{DryRun: true},
	})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(f.dir, "report.txt"))
}

func TestApp_Run_NoTarget(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, nil), nil)
	f.span.EXPECT().RecordError(gomock.Any()).Times(1)

	err := f.app.Run(context.Background(), app.RunOptions{File: "kiln.yaml"})
	require.ErrorIs(t, err, domain.ErrNoTarget)
}

func TestApp_Run_LoadError(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("missing.yaml").Return(nil, os.ErrNotExist)
	f.span.EXPECT().RecordError(gomock.Any()).Times(1)

	err := f.app.Run(context.Background(), app.RunOptions{File: "missing.yaml", Target: "report"})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestApp_Run_TaskFailure(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t)

	boom := errors.New("boom")
	f.loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, boom), nil)
	f.logger.EXPECT().Info(gomock.Any()).Times(1)
	f.span.EXPECT().RecordError(gomock.Any()).Times(1)

	err := f.app.Run(context.Background(), app.RunOptions{File: "kiln.yaml", Target: "report"})
	require.ErrorIs(t, err, domain.ErrTaskExecutionFailed)
	require.ErrorIs(t, err, boom)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.NotEmpty(t, zErr.Metadata()["run_id"])
}

func TestApp_Run_MissingPrerequisite(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, nil), nil)
	f.logger.EXPECT().Info(gomock.Any()).Times(1)
	f.span.EXPECT().RecordError(gomock.Any()).Times(1)

	err := f.app.Run(context.Background(), app.RunOptions{File: "kiln.yaml", Target: "report"})
	require.ErrorIs(t, err, domain.ErrMissingPrerequisite)
	assert.NoFileExists(t, filepath.Join(f.dir, "report.txt"))
}

func TestApp_Status(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t)

	f.loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, nil), nil)

	statuses, err := f.app.Status(context.Background(), app.RunOptions{File: "kiln.yaml", Target: "report"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ArtifactStatus{
		{ID: filepath.Join(f.dir, "raw.txt"), Complete: true},
		{ID: filepath.Join(f.dir, "report.txt"), Complete: false},
	}, statuses)
}

func TestApp_Status_UnknownTarget(t *testing.T) {
	f := newFixture(t)

	f.loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, nil), nil)

	_, err := f.app.Status(context.Background(), app.RunOptions{File: "kiln.yaml", Target: "nope"})
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestApp_Run_InteractiveWithoutProvider(t *testing.T) {
	f := newFixture(t)
	f.writeRaw(t)

	f.loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, nil), nil)
	f.logger.EXPECT().Info(gomock.Any()).Times(1)
	f.span.EXPECT().RecordError(gomock.Any()).Times(1)

	err := f.app.Run(context.Background(), app.RunOptions{File: "kiln.yaml", Target: "report", Interactive: true})
	require.ErrorIs(t, err, domain.ErrInteractiveUnavailable)
	assert.NoFileExists(t, filepath.Join(f.dir, "report.txt"))
}

func TestApp_Run_Interactive(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	tracer := telemetry.NewOTelTracer("test")
	a := app.New(loader, scheduler.NewScheduler(nil, tracer), log, tracer).
		WithProvider(tp).
		WithTeaOptions(
			tea.WithInput(strings.NewReader("")),
			tea.WithOutput(io.Discard),
			tea.WithoutSignalHandler(),
			tea.WithoutRenderer(),
		)

	f := &fixture{dir: t.TempDir()}
	f.writeRaw(t)
	loader.EXPECT().Load("kiln.yaml").Return(f.catalog(t, nil), nil)

	err := a.Run(context.Background(), app.RunOptions{File: "kiln.yaml", Target: "report", Interactive: true})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.dir, "report.txt"))

	// One span per node plus the run span.
	assert.Len(t, sr.Ended(), 3)
}
