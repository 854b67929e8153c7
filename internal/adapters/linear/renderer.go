// Package linear prints step progress as plain, chronological lines.
package linear

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer. Step output goes to stdout with a
// "[step]" prefix, lifecycle messages go to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu    sync.Mutex
	steps map[string]*stepState
}

type stepState struct {
	name    string
	start   time.Time
	partial bytes.Buffer
}

// NewRenderer creates a Renderer. Nil writers select os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: output.NewWithProfile(stderr, output.ColorProfileANSI),
		steps:  make(map[string]*stepState),
	}
}

// Stop prints the partial lines still buffered.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range r.steps {
		r.flushLocked(st)
	}
	return nil
}

// OnPlanEmit prints the number of planned steps.
func (r *Renderer) OnPlanEmit(steps []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Planning to build %d step(s)\n", len(steps))
}

// OnStepStart prints a start message.
func (r *Renderer) OnStepStart(spanID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.steps[spanID] = &stepState{name: name, start: startTime}

	prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
}

// OnStepLog prints every complete line of data with the step prefix and
// keeps the trailing partial line for later.
func (r *Renderer) OnStepLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.steps[spanID]
	if !ok {
		return
	}

	st.partial.Write(data)
	for {
		buffered := st.partial.Bytes()
		i := bytes.IndexByte(buffered, '\n')
		if i < 0 {
			return
		}
		r.printLineLocked(st.name, buffered[:i])
		st.partial.Next(i + 1)
	}
}

// OnStepComplete prints what is left of the step output and the result.
func (r *Renderer) OnStepComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.steps[spanID]
	if !ok {
		return
	}
	delete(r.steps, spanID)
	r.flushLocked(st)

	duration := endTime.Sub(st.start).Round(time.Millisecond)
	prefix := fmt.Sprintf("[%s]", st.name)

	if err != nil {
		icon := r.output.String(style.Cross).Foreground(r.output.Color(string(style.Red))).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, icon, duration, err)
		return
	}

	icon := r.output.String(style.Check).Foreground(r.output.Color(string(style.Green))).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, icon, duration)
}

func (r *Renderer) flushLocked(st *stepState) {
	if st.partial.Len() > 0 {
		r.printLineLocked(st.name, st.partial.Bytes())
		st.partial.Reset()
	}
}

func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
