package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// InstrumentationName names the tracer used for build steps.
const InstrumentationName = "go.trai.ch/kiln"

// Provider owns the tracer provider that feeds a renderer.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer *OTelTracer
}

// Setup installs a tracer provider whose spans are bridged to renderer and
// makes it the global provider.
func Setup(renderer ports.Renderer) *Provider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewBridge(renderer)),
	)
	otel.SetTracerProvider(tp)

	return &Provider{
		tp:     tp,
		tracer: NewOTelTracer(tp.Tracer(InstrumentationName)).WithRenderer(renderer),
	}
}

// Tracer returns the step tracer.
func (p *Provider) Tracer() *OTelTracer {
	return p.tracer
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
