// Package pyside compiles Qt Designer files to Python modules.
package pyside

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// BuilderName is the name of the UI compiler builder.
const BuilderName = "PySideUI"

var _ ports.Tool = (*Tool)(nil)

// Tool is the PySide tool.
type Tool struct{}

// New creates the pyside tool.
func New() *Tool {
	return &Tool{}
}

// Name implements ports.Tool.
func (t *Tool) Name() string {
	return "pyside"
}

// Exists implements ports.Tool.
func (t *Tool) Exists(*domain.Env) bool {
	return true
}

// Generate implements ports.Tool.
func (t *Tool) Generate(reg *domain.Registry, env *domain.Env, _ ports.Logger) error {
	env.SetDefault("PYSIDE_UIC", "pyside-uic")

	return reg.AddBuilder(&domain.Builder{
		Name:         BuilderName,
		Action:       domain.CommandAction("$PYSIDE_UIC $SOURCE > $TARGET"),
		Suffix:       ".py",
		SrcSuffix:    ".ui",
		SingleSource: true,
	})
}
