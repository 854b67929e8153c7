package domain

import (
	"context"
	"io"

	"go.trai.ch/zerr"
)

// Step is one invocation of a builder: a set of targets produced from a set
// of sources under a given environment.
type Step struct {
	Builder *Builder
	Env     *Env
	Targets []Node
	Sources []Node

	// Out receives progress messages from in-process actions.
	Out io.Writer
}

// Label returns a short human-readable description such as "Less(site.css)".
func (s *Step) Label() string {
	name := "<nil>"
	if s.Builder != nil {
		name = s.Builder.Name
	}
	if len(s.Targets) == 0 {
		return name
	}
	return name + "(" + s.Targets[0].Path() + ")"
}

// Invocation is an action resolved for a concrete step. Exactly one of
// Command or Func is set.
type Invocation struct {
	// Command is the external command line, run through the shell.
	Command string
	// Func performs the work in-process.
	Func func(ctx context.Context) error
}

// Action is the work a builder performs for one step.
type Action interface {
	Prepare(step *Step) (Invocation, error)
}

// ActionFunc adapts an ordinary function to the Action interface.
type ActionFunc func(step *Step) (Invocation, error)

// Prepare calls f(step).
func (f ActionFunc) Prepare(step *Step) (Invocation, error) {
	return f(step)
}

// CommandAction returns an action whose command line is the given template
// expanded with Env.Subst.
func CommandAction(template string) Action {
	return ActionFunc(func(step *Step) (Invocation, error) {
		line, err := step.Env.Subst(template, step.Targets, step.Sources)
		if err != nil {
			return Invocation{}, err
		}
		return Invocation{Command: line}, nil
	})
}

// GeneratorFunc builds a command line from the environment and step nodes.
type GeneratorFunc func(env *Env, targets, sources []Node) (string, error)

// GeneratorAction returns an action whose command line is produced by gen.
func GeneratorAction(gen GeneratorFunc) Action {
	return ActionFunc(func(step *Step) (Invocation, error) {
		line, err := gen(step.Env, step.Targets, step.Sources)
		if err != nil {
			return Invocation{}, err
		}
		return Invocation{Command: line}, nil
	})
}

// FuncAction returns an action that runs fn in-process.
func FuncAction(fn func(ctx context.Context, step *Step) error) Action {
	return ActionFunc(func(step *Step) (Invocation, error) {
		return Invocation{Func: func(ctx context.Context) error {
			return fn(ctx, step)
		}}, nil
	})
}

// Emitter may add or rewrite targets and sources after they were derived.
type Emitter func(env *Env, targets, sources []Node) ([]Node, []Node, error)

// Builder maps sources with SrcSuffix to targets with Suffix.
type Builder struct {
	Name   string
	Action Action

	// Suffix is appended to the source base name to derive a target when
	// none is given. An empty suffix means the target must be explicit.
	Suffix string
	// SrcSuffix is the suffix stripped from sources when deriving targets.
	SrcSuffix string
	// SingleSource builders produce one step per source.
	SingleSource bool
	// Emitter adjusts the node lists of each step.
	Emitter Emitter
}

// NewSteps creates the steps needed to build sources into targets. When
// targets is empty the targets are derived from the sources.
func (b *Builder) NewSteps(env *Env, targets, sources []Node) ([]*Step, error) {
	if len(sources) == 0 {
		return nil, zerr.With(ErrNoSources, "builder", b.Name)
	}

	if !b.SingleSource || len(sources) == 1 {
		step, err := b.newStep(env, targets, sources)
		if err != nil {
			return nil, err
		}
		return []*Step{step}, nil
	}

	if len(targets) != 0 && len(targets) != len(sources) {
		err := zerr.With(ErrTargetRequired, "builder", b.Name)
		return nil, zerr.With(err, "reason", "single-source builders need one target per source")
	}

	steps := make([]*Step, 0, len(sources))
	for i, src := range sources {
		var t []Node
		if len(targets) != 0 {
			t = targets[i : i+1]
		}
		step, err := b.newStep(env, t, []Node{src})
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (b *Builder) newStep(env *Env, targets, sources []Node) (*Step, error) {
	if len(targets) == 0 {
		if b.Suffix == "" {
			return nil, zerr.With(ErrTargetRequired, "builder", b.Name)
		}
		targets = []Node{sources[0].WithSuffix(b.SrcSuffix, b.Suffix)}
	}

	targets = append([]Node(nil), targets...)
	sources = append([]Node(nil), sources...)

	if b.Emitter != nil {
		var err error
		targets, sources, err = b.Emitter(env, targets, sources)
		if err != nil {
			return nil, zerr.With(err, "builder", b.Name)
		}
	}

	return &Step{
		Builder: b,
		Env:     env,
		Targets: targets,
		Sources: sources,
	}, nil
}
