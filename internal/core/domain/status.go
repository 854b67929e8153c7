package domain

import "time"

// StepStatus represents the lifecycle state of a build step.
type StepStatus string

const (
	// StepStatusRunning indicates the step is currently executing.
	StepStatusRunning StepStatus = "running"
	// StepStatusCompleted indicates the step executed successfully.
	StepStatusCompleted StepStatus = "completed"
	// StepStatusFailed indicates the step execution failed.
	StepStatusFailed StepStatus = "failed"
	// StepStatusSkipped indicates the step was only printed (dry run).
	StepStatusSkipped StepStatus = "skipped"
)

// StepResult records what happened to one step during a run.
type StepResult struct {
	Label    string
	Command  string
	Status   StepStatus
	Duration time.Duration
	Err      error
}

// Command is an external command line ready to be executed.
type Command struct {
	// Line is passed to the shell verbatim.
	Line string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds extra environment variables layered over the process environment.
	Env map[string]string
}
