package ports

import (
	"context"
	"io"
	"time"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
	// EmitPlan signals that a set of steps is planned for execution.
	EmitPlan(ctx context.Context, steps []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// Renderer presents step progress to the user.
type Renderer interface {
	// OnPlanEmit is called once the steps of a run are known.
	OnPlanEmit(steps []string)

	// OnStepStart is called when a step begins execution.
	OnStepStart(spanID, name string, startTime time.Time)

	// OnStepLog is called when a step emits output. data may hold partial lines.
	OnStepLog(spanID string, data []byte)

	// OnStepComplete is called when a step finishes execution.
	OnStepComplete(spanID string, endTime time.Time, err error)

	// Stop flushes any buffered output.
	Stop() error
}
