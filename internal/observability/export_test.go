package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ResourceFor is buildResource, for the external test package.
func ResourceFor(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// ScanSpanRecorded starts and ends one "anger.scan" span under the sampler
// selectSampler picks for cfg and reports whether the exporter received it.
func ScanSpanRecorded(cfg Config) bool {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(selectSampler(cfg)),
	)

	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer(cfg.ServiceName).Start(context.Background(), "anger.scan")
	span.End()

	return len(exporter.GetSpans()) == 1
}
