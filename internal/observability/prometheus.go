package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// newPrometheusReader creates a pull exporter bound to a fresh registry and
// the handler that serves it. A private registry keeps repeated calls, as in
// tests, from colliding on collector registration.
func newPrometheusReader() (sdkmetric.Reader, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// PrometheusHandler returns a standalone /metrics handler together with the
// MeterProvider feeding it.
func PrometheusHandler() (http.Handler, *sdkmetric.MeterProvider, error) {
	reader, handler, err := newPrometheusReader()
	if err != nil {
		return nil, nil, err
	}

	return handler, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), nil
}
