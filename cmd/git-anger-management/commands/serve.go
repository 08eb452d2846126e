package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sondr3/git-anger-management/internal/anger"
	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/internal/observability"
	"github.com/sondr3/git-anger-management/internal/server"
)

var serveFlagKeys = map[string]string{
	"server.host":  "host",
	"server.port":  "port",
	"server.path":  "path",
	"server.root":  "root",
	"scan.workers": "workers",
}

func newServeCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scan results over HTTP",
		Long: `Start an HTTP server that scans repositories on request.

Routes, relative to server.path:
  GET api/scan?repo=<dir>   JSON report (summary=1 for the summary line, pad=1 to pad)
  GET healthz               liveness
  GET readyz                readiness
  GET metrics               Prometheus metrics

Settings come from the server section of the config file and ANGER_SERVER_*
environment variables; flags override both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "localhost", "listen host")
	flags.Int("port", 8080, "listen port")
	flags.String("path", "/", "path prefix for every route")
	flags.String("root", "", "only allow scanning repositories under this directory")
	flags.Int("workers", 0, "number of scanning goroutines per request")

	return cmd
}

func runServe(cmd *cobra.Command, global *globalOptions) error {
	sess, err := global.start(cmd, observability.ModeServe, bind(cmd, serveFlagKeys))
	if err != nil {
		return err
	}
	defer sess.close()

	red, err := observability.NewREDMetrics(sess.providers.Meter)
	if err != nil {
		return err
	}

	list, err := sess.wordList()
	if err != nil {
		return err
	}

	scan := func(ctx context.Context, path string) (*anger.Repo, error) {
		opts, optsErr := sess.scanOptions(list)
		if optsErr != nil {
			return nil, optsErr
		}

		repo, _, scanErr := history.Scan(ctx, path, opts)

		return repo, scanErr
	}

	srv := server.New(sess.cfg.Server, scan,
		server.WithLogger(sess.providers.Logger),
		server.WithTracer(sess.providers.Tracer),
		server.WithREDMetrics(red),
		server.WithMetricsHandler(sess.providers.MetricsHandler),
		server.WithReadyChecks(list.Ready),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
