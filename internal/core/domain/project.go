package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Project is a loaded project file: the tools to generate, the shared
// environment and the named steps that can be run.
type Project struct {
	Root  string
	Tools []string
	Env   map[string]any
	Steps []StepSpec
}

// StepSpec declares one step of the project.
type StepSpec struct {
	Name    string
	Builder string
	Targets []string
	Sources []string
	Env     map[string]any
}

// Step returns the step declared under name.
func (p *Project) Step(name string) (*StepSpec, error) {
	i := slices.IndexFunc(p.Steps, func(s StepSpec) bool { return s.Name == name })
	if i < 0 {
		return nil, zerr.With(ErrStepNotFound, "step", name)
	}
	return &p.Steps[i], nil
}

// StepNames returns the declared step names in order.
func (p *Project) StepNames() []string {
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		names = append(names, s.Name)
	}
	return names
}

// ValidateStepName checks that name is usable on the command line.
func ValidateStepName(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return zerr.With(ErrInvalidStepName, "step", name)
	}
	return nil
}
