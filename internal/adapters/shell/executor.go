// Package shell provides a shell-based executor for running build commands.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor by running command lines through sh.
// Commands run inside a pseudo-terminal when one can be allocated so that
// compilers keep their colored diagnostics; otherwise plain pipes are used.
type Executor struct {
	logger ports.Logger
	noPTY  bool
}

// NewExecutor creates a new Executor. Output of commands started without
// explicit writers is forwarded to logger.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// WithoutPTY disables pseudo-terminal allocation.
func (e *Executor) WithoutPTY() *Executor {
	e.noPTY = true
	return e
}

// Execute runs cmd.Line with sh -c and waits for it to complete.
func (e *Executor) Execute(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer) error {
	if strings.TrimSpace(cmd.Line) == "" {
		return nil
	}

	stdoutLog := &logWriter{logger: e.logger, warn: false}
	stderrLog := &logWriter{logger: e.logger, warn: true}
	if stdout == nil {
		stdout = stdoutLog
	}
	if stderr == nil {
		stderr = stderrLog
	}
	defer func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}()

	env := resolveEnvironment(os.Environ(), cmd.Env)

	shell := "/bin/sh"
	if lp, err := lookPath("sh", env); err == nil {
		shell = lp
	}

	newCmd := func() *exec.Cmd {
		c := exec.CommandContext(ctx, shell, "-c", cmd.Line) //nolint:gosec // command lines come from the project file
		c.Args[0] = "sh"
		c.Dir = cmd.Dir
		c.Env = env
		return c
	}

	if e.logger != nil {
		e.logger.Debug(cmd.Line)
	}

	err := e.run(newCmd, stdout, stderr)
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}
	return nil
}

func (e *Executor) run(newCmd func() *exec.Cmd, stdout, stderr io.Writer) error {
	if !e.noPTY {
		c := newCmd()
		ptmx, err := pty.Start(c)
		if err == nil {
			ioDone := make(chan struct{})
			go func() {
				defer close(ioDone)
				// stdout and stderr share the terminal.
				_, _ = io.Copy(stdout, ptmx)
			}()

			waitErr := c.Wait()
			<-ioDone
			_ = ptmx.Close()
			return waitErr
		}
		if e.logger != nil {
			e.logger.Debug("pty unavailable, using pipes: " + err.Error())
		}
	}

	c := newCmd()
	c.Stdout = stdout
	c.Stderr = stderr
	return c.Run()
}

// logWriter forwards complete lines to the logger.
type logWriter struct {
	logger ports.Logger
	warn   bool
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	if w.logger == nil {
		return
	}
	msg := strings.TrimSuffix(string(line), "\r")
	if w.warn {
		w.logger.Warn(msg)
	} else {
		w.logger.Info(msg)
	}
}

// allowListedEnvVars are the system environment variables inherited by
// build commands.
var allowListedEnvVars = map[string]struct{}{
	"HOME":   {},
	"TERM":   {},
	"USER":   {},
	"PATH":   {},
	"LANG":   {},
	"TMPDIR": {},
}

// resolveEnvironment layers the step's ENV over the allow-listed system
// environment.
func resolveEnvironment(sysEnv []string, stepEnv map[string]string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}

	for k, v := range stepEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// lookPath searches for an executable in the PATH of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
