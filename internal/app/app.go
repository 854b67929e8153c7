// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/runner"
	"go.trai.ch/kiln/internal/tools"
	"go.trai.ch/kiln/internal/tools/archive"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	resolver     ports.InputResolver
	catalog      *tools.Catalog
	runner       *runner.Runner
	logger       ports.Logger
	renderer     ports.Renderer
	workDir      string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	resolver ports.InputResolver,
	catalog *tools.Catalog,
	run *runner.Runner,
	log ports.Logger,
	renderer ports.Renderer,
) *App {
	return &App{
		configLoader: loader,
		resolver:     resolver,
		catalog:      catalog,
		runner:       run,
		logger:       log,
		renderer:     renderer,
		workDir:      ".",
	}
}

// WithWorkDir sets the directory the project file is searched from and
// command-line paths are relative to.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// interactiveRenderer is a renderer with its own event loop. It is started
// before the first step and waited for after Stop.
type interactiveRenderer interface {
	ports.Renderer
	Start(ctx context.Context) error
	Wait() error
	Done() <-chan struct{}
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	DryRun bool
	// Set holds KEY=VALUE overrides applied on top of every environment.
	Set []string
}

// Run executes the named steps of the project.
func (a *App) Run(ctx context.Context, stepNames []string, opts RunOptions) error {
	if len(stepNames) == 0 {
		return domain.ErrNoStepsSpecified
	}

	ws, err := a.load(opts.Set)
	if err != nil {
		return err
	}

	var steps []*domain.Step
	for _, name := range stepNames {
		planned, err := a.planStep(ws, name)
		if err != nil {
			return err
		}
		steps = append(steps, planned...)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if ir, ok := a.renderer.(interactiveRenderer); ok {
		if err := ir.Start(ctx); err != nil {
			return err
		}
		defer func() {
			_ = ir.Wait()
		}()
		// Quitting the view cancels the build.
		go func() {
			select {
			case <-ir.Done():
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	defer func() {
		_ = a.renderer.Stop()
	}()

	results, err := a.runner.Run(ctx, ws.registry, steps, runner.Options{
		Root:   ws.project.Root,
		DryRun: opts.DryRun,
	})
	if err != nil {
		// A failed step has already been reported by the renderer.
		if n := len(results); n > 0 && results[n-1].Status == domain.StepStatusFailed {
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		}
		return err
	}
	return nil
}

func (a *App) planStep(ws *workspace, name string) ([]*domain.Step, error) {
	decl, err := ws.project.Step(name)
	if err != nil {
		return nil, err
	}

	b, err := ws.registry.Builder(decl.Builder)
	if err != nil {
		return nil, zerr.With(err, "step", name)
	}

	sources, err := a.resolver.ResolveInputs(decl.Sources, ws.project.Root)
	if err != nil {
		return nil, zerr.With(err, "step", name)
	}

	env := ws.env.Clone()
	env.Merge(decl.Env)
	env.Merge(ws.overrides)

	steps, err := b.NewSteps(env, domain.FilesIn(ws.project.Root, decl.Targets...), domain.FilesIn(ws.project.Root, sources...))
	if err != nil {
		return nil, zerr.With(err, "step", name)
	}
	return steps, nil
}

// ScanOptions configuration for the Scan method.
type ScanOptions struct {
	Set []string
}

// ScanReport lists what one file depends on.
type ScanReport struct {
	File         string
	Scanner      string
	Dependencies []string
	// Requested holds the labels of the compile steps the scan asked for.
	Requested []string
}

// Scan runs the dependency scanners over files without building anything.
// Files are scanned concurrently; reports keep the order of files.
func (a *App) Scan(ctx context.Context, files []string, opts ScanOptions) ([]ScanReport, error) {
	ws, err := a.load(opts.Set)
	if err != nil {
		return nil, err
	}

	env := ws.env.Clone()
	env.Merge(ws.overrides)

	nodes := make([]domain.Node, len(files))
	scanners := make([]string, len(files))
	for i, file := range files {
		nodes[i] = a.node(ws.project.Root, file)
		scanner, ok := ws.registry.ScannerFor(nodes[i].Path())
		if !ok {
			return nil, zerr.With(domain.ErrNoScanner, "file", file)
		}
		scanners[i] = scanner.Name
	}

	reports := make([]ScanReport, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, node := range nodes {
		g.Go(func() error {
			res, err := a.runner.Scan(ctx, ws.registry, env, node, runner.Options{Root: ws.project.Root})
			if err != nil {
				return zerr.With(err, "file", files[i])
			}

			report := ScanReport{
				File:         node.Path(),
				Scanner:      scanners[i],
				Dependencies: domain.Paths(res.Dependencies),
			}
			for _, step := range res.Requested {
				report.Requested = append(report.Requested, step.Label())
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// CommandLine returns the command lines builder would run for sources.
// Steps run in-process are shown by label.
func (a *App) CommandLine(builder string, sources []string, target string, set []string) ([]string, error) {
	ws, err := a.load(set)
	if err != nil {
		return nil, err
	}

	b, err := ws.registry.Builder(builder)
	if err != nil {
		return nil, err
	}

	patterns := make([]string, 0, len(sources))
	for _, s := range sources {
		patterns = append(patterns, a.node(ws.project.Root, s).Path())
	}
	resolved, err := a.resolver.ResolveInputs(patterns, ws.project.Root)
	if err != nil {
		return nil, err
	}

	var targets []domain.Node
	if target != "" {
		targets = append(targets, a.node(ws.project.Root, target))
	}

	env := ws.env.Clone()
	env.Merge(ws.overrides)

	steps, err := b.NewSteps(env, targets, domain.FilesIn(ws.project.Root, resolved...))
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(steps))
	for _, step := range steps {
		inv, err := b.Action.Prepare(step)
		if err != nil {
			return nil, err
		}
		if inv.Func != nil {
			lines = append(lines, step.Label()+" (in-process)")
			continue
		}
		lines = append(lines, inv.Command)
	}
	return lines, nil
}

// ToolInfo describes one tool of the catalog.
type ToolInfo struct {
	Name      string
	Available bool
	Builders  []string
	Scanners  []string
}

// Tools lists every tool of the catalog with what it registers.
func (a *App) Tools() ([]ToolInfo, error) {
	infos := make([]ToolInfo, 0, len(a.catalog.Names()))
	for _, name := range a.catalog.Names() {
		tool, _ := a.catalog.Lookup(name)

		reg := domain.NewRegistry()
		env := domain.NewEnv()
		if err := tool.Generate(reg, env, a.logger); err != nil {
			return nil, zerr.With(err, "tool", name)
		}

		info := ToolInfo{Name: name, Available: tool.Exists(env)}
		for _, b := range reg.Builders() {
			info.Builders = append(info.Builders, b.Name)
		}
		for _, s := range reg.Scanners() {
			info.Scanners = append(info.Scanners, s.Name+" ("+strings.Join(s.Skeys, ", ")+")")
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ListArchive returns the entries of an archive written by the Archive
// builder. Relative paths are taken from the working directory.
func (a *App) ListArchive(file string) ([]archive.Entry, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(a.workDir, file)
	}
	return archive.List(file)
}

// workspace is a loaded project with its tools generated.
type workspace struct {
	project   *domain.Project
	registry  *domain.Registry
	env       *domain.Env
	overrides map[string]any
}

// load reads the project file and generates its tools. The shared
// environment is the project env with overrides applied before the tools
// fill in their defaults.
func (a *App) load(set []string) (*workspace, error) {
	project, err := a.configLoader.Load(a.workDir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	overrides, err := domain.ParseAssignments(set)
	if err != nil {
		return nil, err
	}

	env := domain.NewEnv()
	env.Merge(project.Env)
	env.Merge(overrides)

	names := project.Tools
	if len(names) == 0 {
		names = a.catalog.Names()
	}

	reg := domain.NewRegistry()
	if err := a.catalog.Load(reg, env, names, a.logger); err != nil {
		return nil, err
	}

	return &workspace{
		project:   project,
		registry:  reg,
		env:       env,
		overrides: overrides,
	}, nil
}

// node maps a command-line path to a node below root. Paths outside root
// are kept absolute.
func (a *App) node(root, file string) domain.Node {
	abs := file
	if !filepath.IsAbs(abs) {
		wd, err := filepath.Abs(a.workDir)
		if err != nil {
			return domain.FileIn(root, file)
		}
		abs = filepath.Join(wd, file)
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return domain.FileIn(root, file)
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return domain.File(abs)
	}
	return domain.FileIn(root, rel)
}
