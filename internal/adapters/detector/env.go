// Package detector selects how step progress is presented.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputEnvVar overrides the detected output mode. Accepted values are
// "auto", "tui" and "linear" ("ci" is an alias for linear).
const OutputEnvVar = "KILN_OUTPUT"

// OutputMode represents the rendering mode for step progress.
type OutputMode int

const (
	// ModeAuto leaves the choice to DetectEnvironment.
	ModeAuto OutputMode = iota
	// ModeTUI selects the interactive terminal renderer.
	ModeTUI
	// ModeLinear selects the line-oriented renderer.
	ModeLinear
)

// DetectEnvironment returns ModeTUI when out is a terminal outside CI and
// ModeLinear otherwise.
func DetectEnvironment(out *os.File) OutputMode {
	isTTY := out != nil && term.IsTerminal(int(out.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies a user override to the detected mode. Unknown values
// keep the detected mode.
func ResolveMode(detected OutputMode, override string) OutputMode {
	switch override {
	case "tui":
		return ModeTUI
	case "linear", "ci":
		return ModeLinear
	default:
		return detected
	}
}
