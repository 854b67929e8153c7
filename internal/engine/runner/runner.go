// Package runner executes build steps. It scans each step's sources, builds
// the steps that produce its dependencies first and runs the step's action.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// KeyProcessEnv holds the variables exported to external commands.
const KeyProcessEnv = "ENV"

// Runner executes steps against a registry.
type Runner struct {
	executor ports.Executor
	verifier ports.Verifier
	tracer   ports.Tracer
	logger   ports.Logger
}

// New creates a new Runner.
func New(executor ports.Executor, verifier ports.Verifier, tracer ports.Tracer, logger ports.Logger) *Runner {
	return &Runner{
		executor: executor,
		verifier: verifier,
		tracer:   tracer,
		logger:   logger,
	}
}

// Options controls a run.
type Options struct {
	// Root is the project directory. Commands run there and relative
	// dependencies are checked against it.
	Root string
	// DryRun prepares every step without executing it.
	DryRun bool
}

// Run builds steps in order. Steps that produce a dependency of another
// step are built before it. Each step runs at most once. Only steps whose
// action was started get a failed result; other errors are returned alone.
func (r *Runner) Run(ctx context.Context, reg *domain.Registry, steps []*domain.Step, opts Options) ([]domain.StepResult, error) {
	s := r.newSession(reg, opts, true)

	planned := make([]*stepState, 0, len(steps))
	labels := make([]string, 0, len(steps))
	for _, step := range steps {
		st, err := s.add(step)
		if err != nil {
			return s.results, err
		}
		planned = append(planned, st)
		labels = append(labels, step.Label())
	}
	r.tracer.EmitPlan(ctx, labels)

	for _, st := range planned {
		if err := s.build(ctx, st); err != nil {
			return s.results, err
		}
	}
	return s.results, nil
}

// ScanResult is the outcome of scanning one file.
type ScanResult struct {
	Dependencies []domain.Node
	// Requested holds the compile steps the scanners asked for.
	Requested []*domain.Step
}

// Scan returns the dependencies of node as seen by the registered scanner,
// recursing into dependencies that are scannable themselves. Compiles the
// scanner requests are planned but not executed.
func (r *Runner) Scan(ctx context.Context, reg *domain.Registry, env *domain.Env, node domain.Node, opts Options) (ScanResult, error) {
	s := r.newSession(reg, opts, false)
	deps, err := s.scan(ctx, env, []domain.Node{node})
	if err != nil {
		return ScanResult{}, err
	}

	res := ScanResult{Dependencies: deps}
	for _, st := range s.order {
		res.Requested = append(res.Requested, st.step)
	}
	return res, nil
}

type stepState struct {
	step    *domain.Step
	running bool
	done    bool
	err     error
}

type session struct {
	r       *Runner
	reg     *domain.Registry
	opts    Options
	execute bool

	steps     map[string]*stepState // first target path -> state
	producers map[string]*stepState // target path -> producing step
	order     []*stepState
	results   []domain.StepResult
}

func (r *Runner) newSession(reg *domain.Registry, opts Options, execute bool) *session {
	return &session{
		r:         r,
		reg:       reg,
		opts:      opts,
		execute:   execute,
		steps:     make(map[string]*stepState),
		producers: make(map[string]*stepState),
	}
}

// add records step and the targets it produces. A step producing the same
// first target as a known one is merged into it.
func (s *session) add(step *domain.Step) (*stepState, error) {
	if len(step.Targets) == 0 {
		return nil, zerr.With(domain.ErrTargetRequired, "step", step.Label())
	}

	key := step.Targets[0].Path()
	if st, ok := s.steps[key]; ok {
		return st, nil
	}

	st := &stepState{step: step}
	s.steps[key] = st
	s.order = append(s.order, st)
	for _, t := range step.Targets {
		if other, ok := s.producers[t.Path()]; ok && other != st {
			s.r.logger.Warn(fmt.Sprintf("%s is produced by both %s and %s", t.Path(), other.step.Label(), step.Label()))
			continue
		}
		s.producers[t.Path()] = st
	}
	return st, nil
}

func (s *session) build(ctx context.Context, st *stepState) error {
	switch {
	case st.done:
		return st.err
	case st.running:
		return zerr.With(domain.ErrCycleDetected, "step", st.step.Label())
	}

	st.running = true
	st.err = s.buildStep(ctx, st)
	st.running = false
	st.done = true
	return st.err
}

func (s *session) buildStep(ctx context.Context, st *stepState) error {
	step := st.step

	// Sources produced by other steps are built before they are scanned.
	if err := s.buildProducers(ctx, step.Sources); err != nil {
		return err
	}

	deps, err := s.scan(ctx, step.Env, step.Sources)
	if err != nil {
		return zerr.With(err, "step", step.Label())
	}
	if err := s.buildProducers(ctx, deps); err != nil {
		return err
	}
	if !s.execute {
		return nil
	}

	if err := s.verify(step, append(append([]domain.Node(nil), step.Sources...), deps...)); err != nil {
		return err
	}
	return s.run(ctx, step)
}

func (s *session) buildProducers(ctx context.Context, nodes []domain.Node) error {
	for _, n := range nodes {
		if producer, ok := s.producers[n.Path()]; ok {
			if err := s.build(ctx, producer); err != nil {
				return err
			}
		}
	}
	return nil
}

// scan collects the dependencies of nodes. Dependencies that exist and have
// a scanner are scanned as well.
func (s *session) scan(ctx context.Context, env *domain.Env, nodes []domain.Node) ([]domain.Node, error) {
	h := &host{s: s, env: env}
	seen := make(map[string]bool)
	var deps []domain.Node

	queue := append([]domain.Node(nil), nodes...)
	for _, n := range nodes {
		seen[n.Path()] = true
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		scanner, ok := s.reg.ScannerFor(node.Path())
		if !ok || !node.Exists() {
			continue
		}

		s.r.logger.Debug(fmt.Sprintf("scanning %s with %s", node.Path(), scanner.Name))
		found, err := scanner.Scan(ctx, node, env, h)
		if err != nil {
			return nil, zerr.With(err, "scanner", scanner.Name)
		}

		for _, dep := range found {
			if seen[dep.Path()] {
				continue
			}
			seen[dep.Path()] = true
			deps = append(deps, dep)
			queue = append(queue, dep)
		}
	}
	return deps, nil
}

// verify fails when a node neither exists nor is produced by a known step.
func (s *session) verify(step *domain.Step, nodes []domain.Node) error {
	var paths []string
	for _, n := range nodes {
		if _, produced := s.producers[n.Path()]; produced {
			continue
		}
		paths = append(paths, n.OSPath())
	}
	if len(paths) == 0 {
		return nil
	}

	missing, err := s.r.verifier.Missing(s.opts.Root, paths)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}

	rel := make([]string, 0, len(missing))
	for _, m := range missing {
		rel = append(rel, s.relative(m))
	}
	err = zerr.With(domain.ErrMissingDependency, "step", step.Label())
	return zerr.With(err, "missing", strings.Join(rel, ", "))
}

func (s *session) relative(path string) string {
	if s.opts.Root == "" || !filepath.IsAbs(path) {
		return path
	}
	if rel, err := filepath.Rel(s.opts.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func (s *session) run(ctx context.Context, step *domain.Step) error {
	label := step.Label()
	result := domain.StepResult{Label: label, Status: domain.StepStatusRunning}

	inv, err := step.Builder.Action.Prepare(step)
	if err != nil {
		return zerr.With(err, "step", label)
	}
	result.Command = inv.Command

	if s.opts.DryRun {
		result.Status = domain.StepStatusSkipped
		s.results = append(s.results, result)
		if inv.Command != "" {
			s.r.logger.Info(inv.Command)
		} else {
			s.r.logger.Info(label)
		}
		return nil
	}

	if err := makeTargetDirs(step.Targets); err != nil {
		return zerr.With(err, "step", label)
	}

	ctx, span := s.r.tracer.Start(ctx, label)
	start := time.Now()
	err = s.invoke(ctx, step, inv, span)
	result.Duration = time.Since(start)
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	if err != nil {
		err = zerr.With(zerr.Wrap(err, domain.ErrStepExecutionFailed.Error()), "step", label)
		result.Status = domain.StepStatusFailed
		result.Err = err
		s.results = append(s.results, result)
		return err
	}

	result.Status = domain.StepStatusCompleted
	s.results = append(s.results, result)
	return nil
}

func (s *session) invoke(ctx context.Context, step *domain.Step, inv domain.Invocation, span ports.Span) error {
	if inv.Func != nil {
		step.Out = span
		return inv.Func(ctx)
	}

	span.SetAttribute("kiln.command", inv.Command)
	return s.r.executor.Execute(ctx, domain.Command{
		Line: inv.Command,
		Dir:  s.opts.Root,
		Env:  step.Env.StringMap(KeyProcessEnv),
	}, span, span)
}

func makeTargetDirs(targets []domain.Node) error {
	for _, t := range targets {
		dir := filepath.Dir(t.OSPath())
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrFileCreateFailed.Error()), "path", dir)
		}
	}
	return nil
}

// host lets scanners request compiles from the running session.
type host struct {
	s   *session
	env *domain.Env
}

var _ domain.Host = (*host)(nil)

// Request creates the steps that build source with the named builder,
// builds them and returns their targets.
func (h *host) Request(ctx context.Context, builder string, source domain.Node) ([]domain.Node, error) {
	b, err := h.s.reg.Builder(builder)
	if err != nil {
		return nil, err
	}

	steps, err := b.NewSteps(h.env, nil, []domain.Node{source})
	if err != nil {
		return nil, err
	}

	var targets []domain.Node
	for _, step := range steps {
		st, err := h.s.add(step)
		if err != nil {
			return nil, err
		}
		if err := h.s.build(ctx, st); err != nil {
			return nil, err
		}
		targets = append(targets, st.step.Targets...)
	}
	return targets, nil
}

// Warn implements domain.Host.
func (h *host) Warn(msg string) {
	h.s.r.logger.Warn(msg)
}
