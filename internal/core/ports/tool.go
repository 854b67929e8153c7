package ports

import "go.trai.ch/kiln/internal/core/domain"

// Tool contributes builders, scanners and defaults to a registry.
//
//go:generate mockgen -source=tool.go -destination=mocks/mock_tool.go -package=mocks
type Tool interface {
	// Name is the identifier used in the project's tool list.
	Name() string

	// Exists reports whether the tool can be used in this environment.
	Exists(env *domain.Env) bool

	// Generate registers the tool's builders and scanners and fills in
	// its default configuration. Keys already set in env are kept.
	Generate(reg *domain.Registry, env *domain.Env, log Logger) error
}
