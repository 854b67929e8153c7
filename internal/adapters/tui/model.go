// Package tui renders step progress as an interactive terminal view with a
// step list and the output of the selected step.
package tui

import (
	"io"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/output"
)

const (
	listWidthRatio = 0.3
	logPaneChrome  = 4
)

// StepStatus is the state of a step in the list.
type StepStatus string

// Step states.
const (
	StatusPending StepStatus = "Pending"
	StatusRunning StepStatus = "Running"
	StatusDone    StepStatus = "Done"
	StatusError   StepStatus = "Error"
)

// StepNode is one planned step.
type StepNode struct {
	Name     string
	Status   StepStatus
	Term     *Vterm
	Started  time.Time
	Duration time.Duration
	Err      error
}

// MsgPlan announces the steps of a run.
type MsgPlan struct {
	Steps []string
}

// MsgStepStart reports that a step began.
type MsgStepStart struct {
	SpanID    string
	Name      string
	StartTime time.Time
}

// MsgStepLog carries output of a running step.
type MsgStepLog struct {
	SpanID string
	Data   []byte
}

// MsgStepComplete reports that a step finished.
type MsgStepComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}

// Model is the bubbletea model of the step view.
type Model struct {
	Steps   []*StepNode
	SpanMap map[string]*StepNode

	SelectedIdx int
	ListOffset  int
	ListHeight  int
	LogWidth    int
	LogHeight   int

	// FollowMode moves the selection to each step as it starts.
	FollowMode bool
}

// NewModel creates an empty model whose colors follow the profile of w.
func NewModel(w io.Writer) *Model {
	lipgloss.SetColorProfile(output.New(w).Profile)

	return &Model{
		SpanMap:    make(map[string]*StepNode),
		FollowMode: true,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case MsgPlan:
		m.Steps = make([]*StepNode, len(msg.Steps))
		m.SpanMap = make(map[string]*StepNode)
		for i, name := range msg.Steps {
			m.Steps[i] = &StepNode{Name: name, Status: StatusPending, Term: m.newTerm()}
		}
		m.SelectedIdx = 0
		m.ListOffset = 0

	case MsgStepStart:
		m.startStep(msg)

	case MsgStepLog:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			_, _ = node.Term.Write(msg.Data)
		}

	case MsgStepComplete:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			node.Duration = msg.EndTime.Sub(node.Started)
			node.Err = msg.Err
			node.Status = StatusDone
			if msg.Err != nil {
				node.Status = StatusError
			}
		}
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "k", "up":
		if m.SelectedIdx > 0 {
			m.SelectedIdx--
			m.FollowMode = false
			m.ensureVisible()
		}
	case "j", "down":
		if m.SelectedIdx < len(m.Steps)-1 {
			m.SelectedIdx++
			m.FollowMode = false
			m.ensureVisible()
		}
	case "esc":
		m.FollowMode = true
		for i, s := range m.Steps {
			if s.Status == StatusRunning {
				m.SelectedIdx = i
				break
			}
		}
		m.ensureVisible()
		if node := m.Selected(); node != nil {
			node.Term.ScrollToBottom()
		}
	case "pgup":
		if node := m.Selected(); node != nil {
			node.Term.Scroll(-m.LogHeight)
		}
	case "pgdown":
		if node := m.Selected(); node != nil {
			node.Term.Scroll(m.LogHeight)
		}
	}
	return nil
}

// startStep binds the span to the first pending step with that name. A
// step label may appear more than once in a plan. Steps requested by
// scanners during the run are appended.
func (m *Model) startStep(msg MsgStepStart) {
	idx := slices.IndexFunc(m.Steps, func(n *StepNode) bool {
		return n.Name == msg.Name && n.Status == StatusPending
	})
	if idx < 0 {
		m.Steps = append(m.Steps, &StepNode{Name: msg.Name, Term: m.newTerm()})
		idx = len(m.Steps) - 1
	}

	node := m.Steps[idx]
	node.Status = StatusRunning
	node.Started = msg.StartTime
	if m.SpanMap == nil {
		m.SpanMap = make(map[string]*StepNode)
	}
	m.SpanMap[msg.SpanID] = node

	if m.FollowMode {
		m.SelectedIdx = idx
		m.ensureVisible()
		node.Term.ScrollToBottom()
	}
}

func (m *Model) newTerm() *Vterm {
	term := NewVterm()
	if m.LogWidth > 0 && m.LogHeight > 0 {
		term.SetSize(m.LogWidth, m.LogHeight)
	}
	return term
}

func (m *Model) resize(width, height int) {
	listWidth := int(float64(width) * listWidthRatio)
	m.LogWidth = max(width-listWidth-logPaneChrome, 1)

	header := lipgloss.Height(titleStyle.Render("STEPS") + "\n\n")
	m.LogHeight = max(height-lipgloss.Height(titleStyle.Render("LOGS")), 1)
	m.ListHeight = max(height-header, 1)
	m.ensureVisible()

	for _, node := range m.Steps {
		node.Term.SetSize(m.LogWidth, m.LogHeight)
	}
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

// Selected returns the highlighted step, or nil before the plan arrives.
func (m *Model) Selected() *StepNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Steps) {
		return m.Steps[m.SelectedIdx]
	}
	return nil
}
