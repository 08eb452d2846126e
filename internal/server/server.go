// Package server exposes repository scans over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/sondr3/git-anger-management/internal/anger"
	"github.com/sondr3/git-anger-management/internal/config"
	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/internal/observability"
	"github.com/sondr3/git-anger-management/internal/render"
	"github.com/sondr3/git-anger-management/pkg/gitlib"
)

const (
	serverReadTimeout  = 30 * time.Second
	serverWriteTimeout = 5 * time.Minute
	serverIdleTimeout  = 2 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

var (
	// ErrMissingRepo is returned when a scan request names no repository.
	ErrMissingRepo = errors.New("missing repo parameter")
	// ErrOutsideRoot is returned when a requested path escapes server.root.
	ErrOutsideRoot = errors.New("repository is outside the server root")
)

// ScanFunc scans the repository at path.
type ScanFunc func(ctx context.Context, path string) (*anger.Repo, error)

// Server serves the scan API together with health and metrics endpoints.
type Server struct {
	cfg     config.ServerConfig
	scan    ScanFunc
	logger  *slog.Logger
	tracer  trace.Tracer
	red     *observability.REDMetrics
	metrics http.Handler
	ready   []observability.ReadyCheck
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) { s.tracer = tracer }
}

// WithREDMetrics records request metrics.
func WithREDMetrics(red *observability.REDMetrics) Option {
	return func(s *Server) { s.red = red }
}

// WithMetricsHandler mounts handler at /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) { s.metrics = handler }
}

// WithReadyChecks adds checks run by /readyz.
func WithReadyChecks(checks ...observability.ReadyCheck) Option {
	return func(s *Server) { s.ready = append(s.ready, checks...) }
}

// New creates a Server. scan performs the actual repository scan.
func New(cfg config.ServerConfig, scan ScanFunc, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		scan:   scan,
		logger: slog.Default(),
		tracer: nooptrace.NewTracerProvider().Tracer("server"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the HTTP handler with every route mounted under the
// configured path prefix, wrapped in tracing and metrics middleware.
func (s *Server) Handler() http.Handler {
	prefix := s.cfg.Prefix()

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"{$}", s.handleIndex)
	mux.HandleFunc("GET "+prefix+"api/scan", s.handleScan)
	mux.Handle("GET "+prefix+"healthz", observability.HealthHandler())
	mux.Handle("GET "+prefix+"readyz", observability.ReadyHandler(s.ready...))

	if s.metrics != nil {
		mux.Handle("GET "+prefix+"metrics", s.metrics)
	}

	return observability.HTTPMiddleware(s.tracer, s.red, mux)
}

// ListenAndServe serves on cfg.Addr() until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}

	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(listener)
	}()

	s.logger.InfoContext(ctx, "server running", "addr", "http://"+listener.Addr().String()+s.cfg.Prefix(), "name", s.cfg.Name)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	return nil
}

type indexResponse struct {
	Name      string   `json:"name"`
	Admin     string   `json:"admin,omitempty"`
	Endpoints []string `json:"endpoints"`
}

func (s *Server) handleIndex(rw http.ResponseWriter, hr *http.Request) {
	prefix := s.cfg.Prefix()

	endpoints := []string{prefix + "api/scan?repo=<path>", prefix + "healthz", prefix + "readyz"}
	if s.metrics != nil {
		endpoints = append(endpoints, prefix+"metrics")
	}

	writeJSON(hr.Context(), rw, http.StatusOK, indexResponse{
		Name:      s.cfg.Name,
		Admin:     s.cfg.Admin,
		Endpoints: endpoints,
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleScan(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	path, err := s.resolve(hr.URL.Query().Get("repo"))
	if err != nil {
		writeError(ctx, rw, statusFor(err), err)

		return
	}

	repo, err := s.scan(ctx, path)
	if err != nil {
		s.logger.WarnContext(ctx, "scan failed", "repo", path, "error", err)
		writeError(ctx, rw, statusFor(err), err)

		return
	}

	if hr.URL.Query().Get("summary") != "" {
		writeJSON(ctx, rw, http.StatusOK, map[string]string{"summary": render.Summary(repo)})

		return
	}

	rw.Header().Set("Content-Type", "application/json")

	err = render.JSON(rw, repo, render.Options{Pad: hr.URL.Query().Get("pad") != ""})
	if err != nil {
		s.logger.ErrorContext(ctx, "write scan response", "error", err)
	}
}

// resolve turns the repo parameter into an absolute path and enforces
// server.root when configured.
func (s *Server) resolve(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingRepo
	}

	if s.cfg.Root == "" {
		return raw, nil
	}

	root, err := filepath.Abs(s.cfg.Root)
	if err != nil {
		return "", fmt.Errorf("resolve server root: %w", err)
	}

	path := raw
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	path = filepath.Clean(path)

	// Symlinks are only followed when both ends resolve, so a link inside
	// root cannot point the scan elsewhere.
	resolved, pathErr := filepath.EvalSymlinks(path)
	resolvedRoot, rootErr := filepath.EvalSymlinks(root)

	if pathErr == nil && rootErr == nil {
		path, root = resolved, resolvedRoot
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, raw)
	}

	return path, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingRepo), errors.Is(err, gitlib.ErrRemoteNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, ErrOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, history.ErrRepositoryAccess):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, rw http.ResponseWriter, code int, err error) {
	writeJSON(ctx, rw, code, errorResponse{Error: err.Error()})
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		slog.Default().ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}
