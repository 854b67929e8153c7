package tui_test

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/tui"
)

func update(t *testing.T, m *tui.Model, msg tea.Msg) (*tui.Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(*tui.Model)
	require.True(t, ok)
	return model, cmd
}

func planned(t *testing.T, steps ...string) *tui.Model {
	t.Helper()
	m, _ := update(t, &tui.Model{FollowMode: true}, tui.MsgPlan{Steps: steps})
	return m
}

func TestModel_Plan(t *testing.T) {
	m := planned(t, "Less(css/site.css)", "Coffee(js/app.js)")

	require.Len(t, m.Steps, 2)
	assert.Equal(t, "Less(css/site.css)", m.Steps[0].Name)
	assert.Equal(t, tui.StatusPending, m.Steps[0].Status)
	assert.NotNil(t, m.Steps[1].Term)
}

func TestModel_WindowSize(t *testing.T) {
	m := planned(t, "a", "b")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, 100-30-4, m.LogWidth)
	assert.Equal(t, m.LogWidth, m.Steps[0].Term.Width)
	assert.Equal(t, m.LogHeight, m.Steps[1].Term.Height)
	assert.Positive(t, m.ListHeight)
	assert.Less(t, m.ListHeight, 40)
}

func TestModel_StepLifecycle(t *testing.T) {
	start := time.Now()
	m := planned(t, "a", "b")

	m, _ = update(t, m, tui.MsgStepStart{SpanID: "s2", Name: "b", StartTime: start})
	assert.Equal(t, tui.StatusRunning, m.Steps[1].Status)
	assert.Equal(t, 1, m.SelectedIdx, "selection follows the running step")

	m, _ = update(t, m, tui.MsgStepLog{SpanID: "s2", Data: []byte("compiled\n")})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Contains(t, m.Steps[1].Term.View(), "compiled")

	m, _ = update(t, m, tui.MsgStepComplete{SpanID: "s2", EndTime: start.Add(time.Second)})
	assert.Equal(t, tui.StatusDone, m.Steps[1].Status)
	assert.Equal(t, time.Second, m.Steps[1].Duration)

	boom := errors.New("exit status 1")
	m, _ = update(t, m, tui.MsgStepStart{SpanID: "s1", Name: "a", StartTime: start})
	m, _ = update(t, m, tui.MsgStepComplete{SpanID: "s1", EndTime: start, Err: boom})
	assert.Equal(t, tui.StatusError, m.Steps[0].Status)
	assert.Equal(t, boom, m.Steps[0].Err)
}

func TestModel_DuplicateAndUnplannedSteps(t *testing.T) {
	m := planned(t, "a", "a")

	m, _ = update(t, m, tui.MsgStepStart{SpanID: "s1", Name: "a"})
	m, _ = update(t, m, tui.MsgStepStart{SpanID: "s2", Name: "a"})
	assert.Equal(t, tui.StatusRunning, m.Steps[0].Status)
	assert.Equal(t, tui.StatusRunning, m.Steps[1].Status)

	m, _ = update(t, m, tui.MsgStepStart{SpanID: "s3", Name: "Less(css/vars.css)"})
	require.Len(t, m.Steps, 3)
	assert.Equal(t, "Less(css/vars.css)", m.Steps[2].Name)
	assert.Equal(t, 2, m.SelectedIdx)
}

func TestModel_Keys(t *testing.T) {
	m := planned(t, "a", "b", "c")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, tui.MsgStepStart{SpanID: "s3", Name: "c"})
	require.Equal(t, 2, m.SelectedIdx)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.SelectedIdx)
	assert.False(t, m.FollowMode)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 0, m.SelectedIdx)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, m.SelectedIdx)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.FollowMode)
	assert.Equal(t, 2, m.SelectedIdx, "esc jumps back to the running step")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_UnknownSpanIgnored(t *testing.T) {
	m := planned(t, "a")

	assert.NotPanics(t, func() {
		m, _ = update(t, m, tui.MsgStepLog{SpanID: "nope", Data: []byte("x")})
		m, _ = update(t, m, tui.MsgStepComplete{SpanID: "nope"})
	})
	assert.Equal(t, tui.StatusPending, m.Steps[0].Status)
}
