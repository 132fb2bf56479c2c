package agent

import (
	"context"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the otel instrumentation scope for the Agent Loop. cmd/ai
// wires a stdout exporter for local inspection; there is no collector in
// this single-process CLI.
const tracerName = "github.com/ryangerardwilson/aish/internal/agent"

// startTurnSpan tags each turn with a fresh correlation ID, grounded on the
// teacher's uuid.NewString() entity-ID convention (internal/gateway), so a
// turn's span can be cross-referenced against its AI_DEBUG_API log lines.
func startTurnSpan(ctx context.Context, model string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "agent.turn", trace.WithAttributes(
		attribute.String("ai.model", model),
		attribute.String("ai.turn_id", uuid.NewString()),
	))
}

func startToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "agent.tool_dispatch", trace.WithAttributes(
		attribute.String("ai.tool", toolName),
	))
}

// SetupTracing installs a real SDK TracerProvider with a stdout span
// exporter when AI_OTEL_DEBUG is set; otherwise startTurnSpan/startToolSpan
// run against the global no-op provider, as the teacher's trace.go does by
// default. The returned func shuts the provider down and must be deferred
// by the caller; it is a no-op when tracing was never enabled.
func SetupTracing() func() {
	if os.Getenv("AI_OTEL_DEBUG") == "" {
		return func() {}
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return func() {}
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() { _ = tp.Shutdown(context.Background()) }
}
