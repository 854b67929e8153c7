package tui

import (
	"bytes"
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer runs a Model in a bubbletea program and implements
// ports.Renderer by sending it messages.
type Renderer struct {
	program *tea.Program
	done    chan struct{}
	err     error
}

// New creates a Renderer drawing to w.
func New(w io.Writer) *Renderer {
	return NewRenderer(NewModel(w), tea.WithOutput(w))
}

// NewRenderer creates a Renderer for model.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		done:    make(chan struct{}),
	}
}

// Start runs the program in the background. Events sent before Start block
// until the program is running.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, r.err = r.program.Run()
		close(r.done)
	}()
	return nil
}

// Stop asks the program to quit after drawing the final state.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program has terminated.
func (r *Renderer) Wait() error {
	<-r.done
	return r.err
}

// Done is closed once the program has terminated, including when the user
// quits the view.
func (r *Renderer) Done() <-chan struct{} {
	return r.done
}

// OnPlanEmit implements ports.Renderer.
func (r *Renderer) OnPlanEmit(steps []string) {
	r.program.Send(MsgPlan{Steps: steps})
}

// OnStepStart implements ports.Renderer.
func (r *Renderer) OnStepStart(spanID, name string, startTime time.Time) {
	r.program.Send(MsgStepStart{SpanID: spanID, Name: name, StartTime: startTime})
}

// OnStepLog implements ports.Renderer.
func (r *Renderer) OnStepLog(spanID string, data []byte) {
	r.program.Send(MsgStepLog{SpanID: spanID, Data: bytes.Clone(data)})
}

// OnStepComplete implements ports.Renderer.
func (r *Renderer) OnStepComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(MsgStepComplete{SpanID: spanID, EndTime: endTime, Err: err})
}
