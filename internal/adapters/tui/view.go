package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, m.stepList(), m.logPane())
}

func (m *Model) stepList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("STEPS") + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Steps))
	start := min(m.ListOffset, end)
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i, m.Steps[i]) + "\n")
	}

	return listStyle.Render(b.String())
}

func (m *Model) renderRow(index int, node *StepNode) string {
	rowStyle := statusStyle(node.Status)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if node.Status == StatusPending || node.Status == StatusRunning {
			rowStyle = selectedStyle
		}
	}

	text := statusIcon(node.Status) + " " + node.Name
	if node.Status == StatusDone || node.Status == StatusError {
		text += " " + node.Duration.Round(time.Millisecond).String()
	}
	return cursor + rowStyle.Render(text)
}

func (m *Model) logPane() string {
	node := m.Selected()
	if node == nil {
		return logStyle.Render(titleStyle.Render("LOGS (waiting...)"))
	}

	mode := "manual"
	if m.FollowMode {
		mode = "following"
	}

	header := titleStyle.Render(fmt.Sprintf("LOGS: %s [%s, %s]", node.Name, node.Status, mode))
	if node.Status == StatusError {
		header = failureTitleStyle.Render(fmt.Sprintf("LOGS: %s [%s: %v]", node.Name, node.Status, node.Err))
	}

	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, node.Term.View()))
}

func statusIcon(s StepStatus) string {
	switch s {
	case StatusRunning:
		return "●"
	case StatusDone:
		return style.Check
	case StatusError:
		return style.Cross
	default:
		return "○"
	}
}

func statusStyle(s StepStatus) lipgloss.Style {
	switch s {
	case StatusRunning:
		return stepRunningStyle
	case StatusDone:
		return stepDoneStyle
	case StatusError:
		return stepErrorStyle
	default:
		return stepPendingStyle
	}
}
