// Package style provides the colors and icons shared by the logger and the
// step renderer.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Ember  = lipgloss.Color("#E8590C")
	Ash    = lipgloss.Color("#868E96")
	Soot   = lipgloss.Color("#212529")
	Green  = lipgloss.Color("#2B8A3E")
	Red    = lipgloss.Color("#C92A2A")
	Yellow = lipgloss.Color("#F59F00")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
	Dot     = "·"
)
