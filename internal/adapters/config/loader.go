// Package config loads kiln.yaml, kiln.toml and kiln.hcl project files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only project file version understood by this loader.
const SupportedVersion = "1"

// projectFileNames in order of precedence.
var projectFileNames = []string{
	domain.ProjectFileName,
	domain.ProjectTOMLFileName,
	domain.ProjectHCLFileName,
}

// Loader implements ports.ConfigLoader for YAML, TOML and HCL project files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds the nearest project file above cwd and converts it to a Project.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	pf := &Projectfile{}
	switch filepath.Ext(configPath) {
	case ".toml":
		err = readAndUnmarshal(configPath, pf, toml.Unmarshal)
	case ".hcl":
		pf, err = readHCL(configPath)
	default:
		err = readAndUnmarshal(configPath, pf, yaml.Unmarshal)
	}
	if err != nil {
		return nil, zerr.With(err, "file", configPath)
	}

	return l.buildProject(configPath, pf)
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve working directory")
	}

	for {
		var found []string
		for _, name := range projectFileNames {
			if _, err := os.Stat(filepath.Join(currentDir, name)); err == nil {
				found = append(found, name)
			}
		}

		if len(found) > 1 {
			l.Logger.Warn(fmt.Sprintf("%s found in %s, using %s",
				strings.Join(found, " and "), currentDir, found[0]))
		}
		if len(found) > 0 {
			return filepath.Join(currentDir, found[0]), nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) buildProject(configPath string, pf *Projectfile) (*domain.Project, error) {
	if pf.Version != "" && pf.Version != SupportedVersion {
		err := zerr.Wrap(domain.ErrConfigParseFailed, "unsupported project file version")
		return nil, zerr.With(err, "version", pf.Version)
	}

	project := &domain.Project{
		Root:  resolveRoot(configPath, pf.Root),
		Tools: slices.Clone(pf.Tools),
		Env:   pf.Env,
	}
	if project.Env == nil {
		project.Env = map[string]any{}
	}

	names := make([]string, 0, len(pf.Steps))
	for name := range pf.Steps {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		dto := pf.Steps[name]
		if err := domain.ValidateStepName(name); err != nil {
			return nil, err
		}
		if strings.TrimSpace(dto.Builder) == "" {
			err := zerr.Wrap(domain.ErrConfigParseFailed, "step has no builder")
			return nil, zerr.With(err, "step", name)
		}

		targets, err := stringList(dto.Target)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "step", name), "field", "target")
		}
		sources, err := stringList(dto.Sources)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "step", name), "field", "sources")
		}

		project.Steps = append(project.Steps, domain.StepSpec{
			Name:    name,
			Builder: dto.Builder,
			Targets: targets,
			Sources: sources,
			Env:     dto.Env,
		})
	}

	return project, nil
}

// stringList accepts a single string or a list of strings.
func stringList(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, zerr.With(domain.ErrInvalidConfigValue, "value", fmt.Sprint(item))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, zerr.With(domain.ErrInvalidConfigValue, "value", fmt.Sprint(v))
	}
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshal reads a file and decodes it with unmarshal.
func readAndUnmarshal[T any](configPath string, target *T, unmarshal func([]byte, any) error) error {
	// #nosec G304 -- configPath is found by findConfiguration
	data, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if err := unmarshal(data, target); err != nil {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
