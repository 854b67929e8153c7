package archive

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// BuilderName is the name the Archive builder is registered under.
const BuilderName = "Archive"

// Configuration keys.
const (
	KeyZipMethod = "ARCHIVE_ZIP_METHOD"
	KeyPrefix    = "ARCHIVE_PREFIX"
	KeyVerbose   = "ARCHIVE_VERBOSE"
	KeyIgnore    = "ARCHIVE_IGNORE"
)

var _ ports.Tool = (*Tool)(nil)

// Tool registers the Archive builder.
type Tool struct{}

// New creates the archive tool.
func New() *Tool {
	return &Tool{}
}

// Name implements ports.Tool.
func (t *Tool) Name() string {
	return "archive"
}

// Exists implements ports.Tool. Archives are written in-process.
func (t *Tool) Exists(*domain.Env) bool {
	return true
}

// Generate implements ports.Tool.
func (t *Tool) Generate(reg *domain.Registry, env *domain.Env, _ ports.Logger) error {
	env.SetDefault(KeyZipMethod, "ZIP_DEFLATED")
	env.SetDefault(KeyPrefix, "")
	env.SetDefault(KeyVerbose, true)
	env.SetDefault(KeyIgnore, []string{})

	return reg.AddBuilder(&domain.Builder{
		Name:    BuilderName,
		Action:  domain.FuncAction(build),
		Emitter: checkTarget,
	})
}

func checkTarget(_ *domain.Env, targets, sources []domain.Node) ([]domain.Node, []domain.Node, error) {
	if len(targets) != 1 {
		return nil, nil, zerr.With(domain.ErrSingleTarget, "targets", len(targets))
	}
	if _, err := FormatFor(targets[0].Path()); err != nil {
		return nil, nil, err
	}
	return targets, sources, nil
}

func build(_ context.Context, step *domain.Step) error {
	if len(step.Targets) != 1 {
		return zerr.With(domain.ErrSingleTarget, "targets", len(step.Targets))
	}

	opts := Options{
		ZipMethod: step.Env.String(KeyZipMethod),
		Prefix:    step.Env.String(KeyPrefix),
		Ignore:    step.Env.List(KeyIgnore),
	}
	if step.Env.Bool(KeyVerbose) {
		opts.Verbose = step.Out
	}

	return Create(step.Targets[0], step.Sources, opts)
}
