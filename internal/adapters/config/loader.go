// Package config loads kiln taskfiles and runtime settings.
package config

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// CASDir is the location of the content-addressed store, relative to the taskfile.
const CASDir = ".kiln/cas"

// Environment variables exported to every task command.
const (
	EnvOutput = "KILN_OUTPUT"
	EnvInputs = "KILN_INPUTS"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for YAML taskfiles.
// Task commands are run through the executor.
type Loader struct {
	executor ports.Executor
	logger   ports.Logger
	stores   map[string]ports.ArtifactStore
}

// NewLoader creates a new Loader.
func NewLoader(executor ports.Executor, logger ports.Logger) *Loader {
	return &Loader{
		executor: executor,
		logger:   logger,
	}
}

// WithStore makes tasks declaring store kind resolve their output through s
// instead of the built-in store rooted at the taskfile directory.
func (l *Loader) WithStore(kind string, s ports.ArtifactStore) *Loader {
	if l.stores == nil {
		l.stores = make(map[string]ports.ArtifactStore)
	}
	l.stores[kind] = s
	return l
}

// Load reads the taskfile at path and builds one node per declared task.
func (l *Loader) Load(path string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read taskfile"), "path", path)
	}

	var tf Taskfile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse taskfile"), "path", path)
	}

	if msgs := validateTaskfile(&tf); len(msgs) > 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidTaskfile, strings.Join(msgs, "; ")), "path", path)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve taskfile directory")
	}

	b := &builder{
		loader:   l,
		taskfile: &tf,
		dir:      dir,
		fsStore:  fs.NewStore(dir),
		built:    make(map[string]*domain.Node),
		visiting: make(map[string]bool),
	}

	catalog := domain.NewCatalog()
	names := slices.Sorted(maps.Keys(tf.Tasks))
	for _, name := range names {
		n, err := b.build(name, nil)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(name, n); err != nil {
			return nil, err
		}
	}

	if tf.Default != "" {
		if _, err := catalog.Lookup(tf.Default); err != nil {
			return nil, zerr.With(err, "field", "default")
		}
		catalog.SetDefault(tf.Default)
	}

	return catalog, nil
}

// builder turns task declarations into nodes, resolving requires by name.
type builder struct {
	loader   *Loader
	taskfile *Taskfile
	dir      string
	fsStore  *fs.Store
	casStore *cas.Store

	built    map[string]*domain.Node
	visiting map[string]bool
}

func (b *builder) build(name string, path []string) (*domain.Node, error) {
	if n, ok := b.built[name]; ok {
		return n, nil
	}

	path = append(path, name)
	if b.visiting[name] {
		start := slices.Index(path, name)
		return nil, domain.CycleError(path[start:])
	}

	dto, ok := b.taskfile.Tasks[name]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrTaskNotFound, name), "task_name", name)
	}

	b.visiting[name] = true
	defer delete(b.visiting, name)

	output, err := b.artifact(dto)
	if err != nil {
		return nil, zerr.With(err, "task_name", name)
	}

	var n *domain.Node
	if dto.Prerequisite {
		if len(dto.Cmd) > 0 && b.loader.logger != nil {
			b.loader.logger.Warn(fmt.Sprintf("task %q is a prerequisite, its cmd is ignored", name))
		}
		n, err = domain.NewPrerequisite(output)
	} else {
		n, err = b.task(name, dto, output, path)
	}
	if err != nil {
		return nil, err
	}

	b.built[name] = n
	return n, nil
}

func (b *builder) task(name string, dto TaskDTO, output domain.Artifact, path []string) (*domain.Node, error) {
	if len(dto.Cmd) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidTaskfile, "cmd must not be empty"), "task_name", name)
	}

	requires := make(domain.Nodes, 0, len(dto.Requires))
	for _, dep := range dto.Requires {
		if _, ok := b.taskfile.Tasks[dep]; !ok {
			return nil, zerr.With(
				zerr.With(zerr.Wrap(domain.ErrTaskNotFound, dep), "task_name", name),
				"missing_dependency", dep,
			)
		}
		n, err := b.build(dep, path)
		if err != nil {
			return nil, err
		}
		requires = append(requires, n)
	}

	return domain.NewTask(domain.TaskSpec{
		Output:   output,
		Requires: requires,
		Run: b.loader.action(name, ports.Command{
			Args: dto.Cmd,
			Dir:  b.dir,
			Env:  dto.Env,
		}, dto.Store == StoreCAS),
	})
}

func (b *builder) artifact(dto TaskDTO) (domain.Artifact, error) {
	kind := dto.Store
	if kind == "" {
		kind = StoreFS
	}
	if s, ok := b.loader.stores[kind]; ok {
		return s.Artifact(dto.Output)
	}

	switch kind {
	case StoreFS:
		return b.fsStore.Artifact(dto.Output)
	case StoreCAS:
		if b.casStore == nil {
			s, err := cas.NewStore(filepath.Join(b.dir, CASDir))
			if err != nil {
				return nil, err
			}
			b.casStore = s
		}
		return b.casStore.Artifact(dto.Output)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStore, kind), "store", kind)
	}
}

// action runs cmd for a task. With capture the command's stdout becomes the
// artifact content; otherwise the command must create the output itself.
func (l *Loader) action(name string, cmd ports.Command, capture bool) domain.ActionFunc {
	return func(ctx context.Context, output domain.Artifact, inputs []domain.Artifact) domain.Completion {
		ids := make([]string, len(inputs))
		for i, in := range inputs {
			ids[i] = in.ID()
		}

		env := maps.Clone(cmd.Env)
		if env == nil {
			env = make(map[string]string, 2)
		}
		env[EnvOutput] = output.ID()
		env[EnvInputs] = strings.Join(ids, " ")

		run := ports.Command{Args: cmd.Args, Dir: cmd.Dir, Env: env}

		return domain.Async(func() error {
			if capture {
				return l.capture(ctx, name, run, output)
			}

			if err := l.executor.Execute(ctx, run, nil); err != nil {
				return zerr.With(err, "task_name", name)
			}

			exists, err := output.Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return zerr.With(zerr.Wrap(domain.ErrOutputNotProduced, output.ID()), "task_name", name)
			}
			return nil
		})
	}
}

func (l *Loader) capture(ctx context.Context, name string, cmd ports.Command, output domain.Artifact) error {
	rw, ok := output.(domain.ReadWriter)
	if !ok {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrOutputNotWritable, output.ID()), "task_name", name), "artifact", output.ID())
	}

	var buf bytes.Buffer
	if err := l.executor.Execute(ctx, cmd, &buf); err != nil {
		return zerr.With(err, "task_name", name)
	}
	return rw.Write(ctx, buf.Bytes())
}
