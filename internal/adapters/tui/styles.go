package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

var (
	stepPendingStyle = lipgloss.NewStyle().Foreground(style.Ash)
	stepRunningStyle = lipgloss.NewStyle().Foreground(style.Ember).Bold(true)
	stepDoneStyle    = lipgloss.NewStyle().Foreground(style.Green)
	stepErrorStyle   = lipgloss.NewStyle().Foreground(style.Red)
	selectedStyle    = lipgloss.NewStyle().Foreground(style.Ember).Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Ember).
			Foreground(lipgloss.Color("#FFFFFF"))

	failureTitleStyle = titleStyle.Background(style.Red)

	listStyle = lipgloss.NewStyle().MarginRight(2)
	logStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(style.Ash).
			PaddingLeft(1)
)
