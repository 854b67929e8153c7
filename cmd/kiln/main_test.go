package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/runner"
	"go.trai.ch/kiln/internal/tools"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	testscript.RunMain(m, map[string]func() int{
		"kiln": func() int {
			return run(context.Background(), os.Args[1:], os.Stderr, graftProvider)
		},
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("NO_COLOR", "1")
			env.Setenv("CI", "true")
			return nil
		},
	})
}

type fixture struct {
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
		loader:   mocks.NewMockConfigLoader(ctrl),
		resolver: mocks.NewMockInputResolver(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		verifier: mocks.NewMockVerifier(ctrl),
		tracer:   mocks.NewMockTracer(ctrl),
		span:     mocks.NewMockSpan(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		renderer: mocks.NewMockRenderer(ctrl),
	}
	f.app = app.New(
		f.loader,
		f.resolver,
		tools.Default(),
		runner.New(f.executor, f.verifier, f.tracer, f.logger),
		f.logger,
		f.renderer,
	)
	return f
}

func (f *fixture) provider(_ context.Context) (*app.Components, func(), error) {
	return &app.Components{App: f.app, Logger: f.logger}, func() {}, nil
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	f := newFixture(t)

	exitCode := run(t.Context(), []string{"version"}, new(bytes.Buffer), f.provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(t.Context(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that errors other than failed steps are logged.
func TestRun_ExecutionError(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	f.loader.EXPECT().Load(dir).Return(nil, errors.New("load failed"))
	f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorContains(t, err, "load failed")
	})

	exitCode := run(t.Context(), []string{"run", "css"}, io.Discard, f.provider, func(a *app.App) {
		a.WithWorkDir(dir)
	})
	assert.Equal(t, 1, exitCode)
}

// TestRun_StepFailure verifies that a failed step exits 1 without logging
// the error a second time.
func TestRun_StepFailure(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "css", "site.less"), []byte("a { b: c; }\n"), 0o600))

	f.loader.EXPECT().Load(root).Return(&domain.Project{
		Root:  root,
		Tools: []string{"web"},
		Steps: []domain.StepSpec{{Name: "css", Builder: "Less", Sources: []string{"css/site.less"}}},
	}, nil)
	f.resolver.EXPECT().ResolveInputs([]string{"css/site.less"}, root).Return([]string{"css/site.less"}, nil)
	f.logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	f.verifier.EXPECT().Missing(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any())
	f.tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, f.span
		})
	f.span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	f.span.EXPECT().RecordError(gomock.Any())
	f.span.EXPECT().End()
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("exit status 1"))
	f.renderer.EXPECT().Stop().Return(nil)

	exitCode := run(t.Context(), []string{"run", "css"}, io.Discard, f.provider, func(a *app.App) {
		a.WithWorkDir(root)
	})
	assert.Equal(t, 1, exitCode)
}

// TestRun_Signal verifies that the context is canceled on signal.
func TestRun_Signal(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	blockCh := make(chan struct{})

	f.loader.EXPECT().Load(gomock.Any()).DoAndReturn(func(_ string) (*domain.Project, error) {
		select {
		case <-blockCh:
			return nil, context.Canceled
		case <-time.After(5 * time.Second):
			return nil, errors.New("timeout in mock")
		}
	})
	f.logger.EXPECT().Error(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan int)

	go func() {
		errCh <- run(ctx, []string{"run", "css"}, io.Discard, f.provider, func(a *app.App) {
			a.WithWorkDir(dir)
		})
	}()

	// Wait a bit to ensure run() reaches Load()
	time.Sleep(100 * time.Millisecond)

	cancel()
	close(blockCh)

	select {
	case ret := <-errCh:
		assert.NotEqual(t, 0, ret)
	case <-time.After(2 * time.Second):
		t.Fatal("TestRun_Signal timed out waiting for run() to return")
	}
}
