package app_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/runner"
	"go.trai.ch/kiln/internal/tools"
	"go.trai.ch/kiln/internal/tools/archive"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	root     string
	loader   *mocks.MockConfigLoader
	resolver *mocks.MockInputResolver
	executor *mocks.MockExecutor
	verifier *mocks.MockVerifier
	tracer   *mocks.MockTracer
	span     *mocks.MockSpan
	logger   *mocks.MockLogger
	renderer *mocks.MockRenderer
	app      *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		root:     t.TempDir(),
		loader:   mocks.NewMockConfigLoader(ctrl),
		resolver: mocks.NewMockInputResolver(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		verifier: mocks.NewMockVerifier(ctrl),
		tracer:   mocks.NewMockTracer(ctrl),
		span:     mocks.NewMockSpan(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		renderer: mocks.NewMockRenderer(ctrl),
	}

	run := runner.New(f.executor, f.verifier, f.tracer, f.logger)
	f.app = app.New(f.loader, f.resolver, tools.Default(), run, f.logger, f.renderer).WithWorkDir(f.root)

	f.logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	f.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	f.tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, f.span
		}).AnyTimes()
	f.span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	f.span.EXPECT().End().AnyTimes()
	f.verifier.EXPECT().Missing(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	return f
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (f *fixture) project() *domain.Project {
	return &domain.Project{
		Root:  f.root,
		Tools: []string{"web"},
		Env:   map[string]any{"LESS_COMPRESS": true},
		Steps: []domain.StepSpec{
			{
				Name:    "css",
				Builder: "Less",
				Sources: []string{"css/*.less"},
				Env:     map[string]any{"LESS_SOURCE_MAP": true},
			},
			{
				Name:    "js",
				Builder: "Coffee",
				Sources: []string{"js/app.coffee"},
			},
		},
	}
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "css/site.less", ".a { color: red; }\n")

	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)
	f.resolver.EXPECT().ResolveInputs([]string{"css/*.less"}, f.root).Return([]string{"css/site.less"}, nil)
	f.executor.EXPECT().Execute(gomock.Any(), domain.Command{
		Line: "lessc --compress --strict-math=on --source-map css/site.less css/site.css",
		Dir:  f.root,
	}, f.span, f.span).Return(nil)
	f.renderer.EXPECT().Stop().Return(nil)

	err := f.app.Run(t.Context(), []string{"css"}, app.RunOptions{Set: []string{"LESS_STRICT_MATH=true"}})
	require.NoError(t, err)
}

func TestApp_Run_NoSteps(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.app.Run(t.Context(), nil, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrNoStepsSpecified)
}

func TestApp_Run_UnknownStep(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)

	err := f.app.Run(t.Context(), []string{"docs"}, app.RunOptions{})
	require.Error(t, err)
	assert.Equal(t, "step not found", err.Error())
}

func TestApp_Run_LoadError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.EXPECT().Load(f.root).Return(nil, domain.ErrConfigNotFound)

	err := f.app.Run(t.Context(), []string{"css"}, app.RunOptions{})
	require.Error(t, err)
	assert.Equal(t, "failed to load configuration: could not find a kiln.yaml, kiln.toml or kiln.hcl project file", err.Error())
}

func TestApp_Run_InvalidOverride(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)

	err := f.app.Run(t.Context(), []string{"css"}, app.RunOptions{Set: []string{"LESS_COMPRESS"}})
	require.Error(t, err)
	assert.Equal(t, "invalid configuration value", err.Error())
}

func TestApp_Run_StepFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "js/app.coffee", "x = 1\n")

	boom := errors.New("exit status 1")
	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)
	f.resolver.EXPECT().ResolveInputs([]string{"js/app.coffee"}, f.root).Return([]string{"js/app.coffee"}, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)
	f.span.EXPECT().RecordError(boom)
	f.renderer.EXPECT().Stop().Return(nil)

	err := f.app.Run(t.Context(), []string{"js"}, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
}

// eventLoopRenderer adds the Start/Wait/Done lifecycle of an interactive
// renderer to the mock.
type eventLoopRenderer struct {
	*mocks.MockRenderer

	mu     sync.Mutex
	events []string
	done   chan struct{}
}

func (r *eventLoopRenderer) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventLoopRenderer) Start(context.Context) error {
	r.record("start")
	return nil
}

func (r *eventLoopRenderer) Wait() error {
	r.record("wait")
	return nil
}

func (r *eventLoopRenderer) Done() <-chan struct{} {
	return r.done
}

func TestApp_Run_InteractiveRenderer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "js/app.coffee", "x = 1\n")

	r := &eventLoopRenderer{MockRenderer: f.renderer, done: make(chan struct{})}
	run := runner.New(f.executor, f.verifier, f.tracer, f.logger)
	a := app.New(f.loader, f.resolver, tools.Default(), run, f.logger, r).WithWorkDir(f.root)

	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)
	f.resolver.EXPECT().ResolveInputs(gomock.Any(), f.root).Return([]string{"js/app.coffee"}, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.Command, io.Writer, io.Writer) error {
			r.record("execute")
			return nil
		})
	f.renderer.EXPECT().Stop().DoAndReturn(func() error {
		r.record("stop")
		return nil
	})

	require.NoError(t, a.Run(t.Context(), []string{"js"}, app.RunOptions{}))
	assert.Equal(t, []string{"start", "execute", "stop", "wait"}, r.events)
}

func TestApp_Run_QuitViewCancelsBuild(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "js/app.coffee", "x = 1\n")

	r := &eventLoopRenderer{MockRenderer: f.renderer, done: make(chan struct{})}
	close(r.done)
	run := runner.New(f.executor, f.verifier, f.tracer, f.logger)
	a := app.New(f.loader, f.resolver, tools.Default(), run, f.logger, r).WithWorkDir(f.root)

	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)
	f.resolver.EXPECT().ResolveInputs(gomock.Any(), f.root).Return([]string{"js/app.coffee"}, nil)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ domain.Command, _, _ io.Writer) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return errors.New("build was not canceled")
			}
		}).AnyTimes()
	f.span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	f.renderer.EXPECT().Stop().Return(nil)

	err := a.Run(t.Context(), []string{"js"}, app.RunOptions{})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "build was not canceled")
}

func TestApp_Run_DryRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "js/app.coffee", "x = 1\n")

	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)
	f.resolver.EXPECT().ResolveInputs(gomock.Any(), f.root).Return([]string{"js/app.coffee"}, nil)
	f.logger.EXPECT().Info("coffee --bare --output js --compile js/app.coffee")
	f.renderer.EXPECT().Stop().Return(nil)

	err := f.app.Run(t.Context(), []string{"js"}, app.RunOptions{DryRun: true, Set: []string{"COFFEE_BARE=yes"}})
	require.NoError(t, err)
}

func TestApp_Scan(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "css/site.less", `@import "base";`)
	f.write(t, "css/base.less", "")
	f.write(t, "js/app.coffee", "require './util'\n")
	f.write(t, "js/util.coffee", "")

	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)

	reports, err := f.app.Scan(t.Context(), []string{"css/site.less", "js/app.coffee"}, app.ScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, []app.ScanReport{
		{
			File:         "css/site.less",
			Scanner:      "less",
			Dependencies: []string{"css/base.less"},
		},
		{
			File:         "js/app.coffee",
			Scanner:      "coffee",
			Dependencies: []string{"js/util.js"},
			Requested:    []string{"Coffee(js/util.js)"},
		},
	}, reports)
}

func TestApp_Scan_NoScanner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)

	_, err := f.app.Scan(t.Context(), []string{"README.md"}, app.ScanOptions{})
	require.Error(t, err)
	assert.Equal(t, "no scanner for file", err.Error())
}

func TestApp_CommandLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.EXPECT().Load(f.root).Return(f.project(), nil).Times(2)
	f.resolver.EXPECT().ResolveInputs([]string{"js/*.js"}, f.root).Return([]string{"js/a.js", "js/b.js"}, nil).Times(2)

	lines, err := f.app.CommandLine("JSMin", []string{"js/*.js"}, "dist/app.min.js", []string{"JSMIN_COMPRESS=1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"uglifyjs js/a.js js/b.js --output dist/app.min.js --compress"}, lines)

	lines, err = f.app.CommandLine("JSMin", []string{"js/*.js"}, "dist/app.min.js", []string{"JSMIN_BACKEND=builtin"})
	require.NoError(t, err)
	assert.Equal(t, []string{"JSMin(dist/app.min.js) (in-process)"}, lines)
}

func TestApp_CommandLine_UnknownBuilder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.loader.EXPECT().Load(f.root).Return(f.project(), nil)

	_, err := f.app.CommandLine("Sass", []string{"a.scss"}, "", nil)
	require.Error(t, err)
	assert.Equal(t, "builder not found", err.Error())
}

func TestApp_Tools(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	infos, err := f.app.Tools()
	require.NoError(t, err)
	require.Len(t, infos, 5)

	byName := make(map[string]app.ToolInfo, len(infos))
	for _, info := range infos {
		assert.True(t, info.Available, info.Name)
		byName[info.Name] = info
	}

	assert.Equal(t, []string{"Archive"}, byName["archive"].Builders)
	assert.Equal(t, []string{"AVRElf", "AVRHex"}, byName["avr"].Builders)
	assert.Equal(t, []string{"Coffee", "Dart2Js", "HTMLMin", "JSMin", "Less"}, byName["web"].Builders)
	assert.Equal(t, []string{"less (.less)", "coffee (.coffee)", "dart (.dart)"}, byName["web"].Scanners)
	assert.Empty(t, byName["pyside"].Scanners)
}

func TestApp_ListArchive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "site/index.html", "<p>hi</p>")

	target := domain.FileIn(f.root, "site.zip")
	require.NoError(t, archive.Create(target, domain.FilesIn(f.root, "site"), archive.Options{}))

	for _, file := range []string{"site.zip", target.OSPath()} {
		entries, err := f.app.ListArchive(file)
		require.NoError(t, err, file)
		require.Len(t, entries, 1)
		assert.Equal(t, "site/index.html", entries[0].Name)
		assert.Equal(t, int64(9), entries[0].Size)
	}
}
