package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sondr3/git-anger-management/internal/mcp"
	"github.com/sondr3/git-anger-management/internal/observability"
	"github.com/sondr3/git-anger-management/pkg/version"
)

func newMCPCommand(global *globalOptions) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio.

Tools:
  anger_scan:  count flagged words per author in a local repository
  anger_check: count flagged words in a piece of text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; logs go to stderr as JSON.
			sess, err := global.start(cmd, observability.ModeMCP, bind(cmd, nil), func(cfg *observability.Config) {
				cfg.LogJSON = true

				if debug {
					cfg.LogLevel = slog.LevelDebug
				}
			})
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

			scanOpts, err := sess.scanOptions(list)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Version: version.Version,
				Logger:  sess.providers.Logger,
				Metrics: red,
				Tracer:  sess.providers.Tracer,
				Scan:    scanOpts,
			})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")

	return cmd
}
