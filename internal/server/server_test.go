package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sondr3/git-anger-management/internal/anger"
	"github.com/sondr3/git-anger-management/internal/config"
	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/internal/observability"
	"github.com/sondr3/git-anger-management/internal/render"
	"github.com/sondr3/git-anger-management/internal/server"
	"github.com/sondr3/git-anger-management/pkg/gitlib"
)

func scanner(ctx context.Context, path string) (*anger.Repo, error) {
	repo, _, err := history.Scan(ctx, path, history.Options{Logger: observability.DiscardLogger()})

	return repo, err
}

func defaultServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host: config.DefaultServerHost,
		Port: config.DefaultServerPort,
		Path: config.DefaultServerPath,
		Name: config.DefaultServerName,
	}
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))

	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestScan_ReturnsReport(t *testing.T) {
	t.Parallel()

	tr := gitlib.NewTestRepo(t)
	tr.Fixture()

	handler := server.New(defaultServerConfig(), scanner, server.WithLogger(observability.DiscardLogger())).Handler()

	rec := get(t, handler, "/api/scan?repo="+url.QueryEscape(tr.Path()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, render.Validate(rec.Body.Bytes()))

	body := decodeJSON(t, rec)
	assert.InDelta(t, 5, body["total_curses"], 0)
	assert.InDelta(t, 4, body["total_commits"], 0)
}

func TestScan_Summary(t *testing.T) {
	t.Parallel()

	tr := gitlib.NewTestRepo(t)
	tr.Fixture()

	handler := server.New(defaultServerConfig(), scanner).Handler()

	rec := get(t, handler, "/api/scan?summary=1&repo="+url.QueryEscape(tr.Path()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, filepath.Base(tr.Path())+": (5/4) naughty commits/commits", decodeJSON(t, rec)["summary"])
}

func TestScan_Errors(t *testing.T) {
	t.Parallel()

	cfg := defaultServerConfig()
	handler := server.New(cfg, scanner, server.WithLogger(observability.DiscardLogger())).Handler()

	assert.Equal(t, http.StatusBadRequest, get(t, handler, "/api/scan").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, handler, "/api/scan?repo="+url.QueryEscape("https://example.com/r.git")).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, handler, "/api/scan?repo="+url.QueryEscape(t.TempDir())).Code)

	failing := server.New(cfg, func(context.Context, string) (*anger.Repo, error) {
		return nil, errors.New("boom")
	}, server.WithLogger(observability.DiscardLogger())).Handler()

	rec := get(t, failing, "/api/scan?repo=x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", decodeJSON(t, rec)["error"])
}

func TestScan_RootRestriction(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outside := gitlib.NewTestRepo(t)
	outside.Fixture()

	cfg := defaultServerConfig()
	cfg.Root = root

	var scanned []string

	handler := server.New(cfg, func(_ context.Context, path string) (*anger.Repo, error) {
		scanned = append(scanned, path)

		return &anger.Repo{Name: filepath.Base(path)}, nil
	}).Handler()

	assert.Equal(t, http.StatusForbidden, get(t, handler, "/api/scan?repo="+url.QueryEscape(outside.Path())).Code)
	assert.Equal(t, http.StatusForbidden, get(t, handler, "/api/scan?repo=../../etc").Code)
	assert.Empty(t, scanned)

	rec := get(t, handler, "/api/scan?repo=project")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, scanned, 1)
	assert.Equal(t, "project", filepath.Base(scanned[0]))
}

func TestIndexAndHealth_UnderPrefix(t *testing.T) {
	t.Parallel()

	cfg := defaultServerConfig()
	cfg.Path = "/anger"
	cfg.Admin = "admin@example.com"

	handler := server.New(cfg, scanner,
		server.WithReadyChecks(func(context.Context) error { return nil }),
	).Handler()

	rec := get(t, handler, "/anger/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "anger", body["name"])
	assert.Equal(t, "admin@example.com", body["admin"])

	assert.Equal(t, http.StatusOK, get(t, handler, "/anger/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, handler, "/anger/readyz").Code)
	assert.Equal(t, http.StatusNotFound, get(t, handler, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, get(t, handler, "/anger/metrics").Code)
}

func TestReadyz_Failing(t *testing.T) {
	t.Parallel()

	handler := server.New(defaultServerConfig(), scanner,
		server.WithReadyChecks(func(context.Context) error { return errors.New("no words") }),
	).Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, handler, "/readyz").Code)
}

func TestMetricsAndTracing(t *testing.T) {
	t.Parallel()

	metrics, mp, err := observability.PrometheusHandler()
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	handler := server.New(defaultServerConfig(), scanner,
		server.WithMetricsHandler(metrics),
		server.WithREDMetrics(red),
		server.WithTracer(tp.Tracer("test")),
	).Handler()

	require.Equal(t, http.StatusOK, get(t, handler, "/healthz").Code)

	rec := get(t, handler, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "anger_requests_total")

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, "GET /healthz", spans[0].Name)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	srv := server.New(defaultServerConfig(), scanner, server.WithLogger(observability.DiscardLogger()))

	done := make(chan error, 1)

	go func() { done <- srv.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, getErr := http.Get("http://" + listener.Addr().String() + "/healthz") //nolint:noctx // Plain GET in a test.
		if getErr != nil {
			return false
		}

		defer resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
