// Package commands implements the git-anger-management CLI commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sondr3/git-anger-management/internal/config"
	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/internal/observability"
	"github.com/sondr3/git-anger-management/pkg/version"
	"github.com/sondr3/git-anger-management/pkg/words"
)

const binaryName = "git-anger-management"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	verbose    bool
	quiet      bool
	configPath string
}

func (g *globalOptions) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "verbose output, including timing and debug logs")
	flags.BoolVarP(&g.quiet, "quiet", "q", false, "suppress progress output")
	flags.StringVar(&g.configPath, "config", "", "config file (default: .git-anger.yaml in the current or home directory)")
	flags.Bool("log-json", false, "write logs as JSON")
}

// bind maps config keys to flag names. Flags that do not exist on cmd are
// ignored.
func bind(cmd *cobra.Command, pairs map[string]string) []config.Binding {
	bindings := make([]config.Binding, 0, len(pairs)+1)
	bindings = append(bindings, config.Binding{Key: "logging.json", Flag: cmd.Flag("log-json")})

	for key, name := range pairs {
		bindings = append(bindings, config.Binding{Key: key, Flag: cmd.Flag(name)})
	}

	return bindings
}

// session is the loaded configuration plus initialized telemetry for one
// command invocation.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	scan      *observability.ScanMetrics
}

func (g *globalOptions) start(
	cmd *cobra.Command,
	mode observability.AppMode,
	bindings []config.Binding,
	adjust ...func(*observability.Config),
) (*session, error) {
	cfg, err := config.LoadConfig(g.configPath, bindings...)
	if err != nil {
		return nil, err
	}

	obsCfg := cfg.Observability(mode, version.Version)
	obsCfg.LogOutput = cmd.ErrOrStderr()

	if g.verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	for _, fn := range adjust {
		fn(&obsCfg)
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	scanMetrics, err := observability.NewScanMetrics(providers.Meter)
	if err != nil {
		shutdown(providers)

		return nil, err
	}

	return &session{cfg: cfg, providers: providers, scan: scanMetrics}, nil
}

func (s *session) close() {
	shutdown(s.providers)
}

func shutdown(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// wordList returns the configured word list, the compiled-in one by default.
func (s *session) wordList() (*words.List, error) {
	if s.cfg.Scan.WordsFile == "" {
		return words.Default(), nil
	}

	list, err := words.LoadFile(s.cfg.Scan.WordsFile)
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}

	return list, nil
}

// scanOptions builds history options from the configuration. since is
// evaluated now, so relative cutoffs like "720h" are relative to the call.
func (s *session) scanOptions(list *words.List) (history.Options, error) {
	since, err := s.cfg.SinceTime()
	if err != nil {
		return history.Options{}, err
	}

	return history.Options{
		Words:       list,
		Logger:      s.providers.Logger,
		Metrics:     s.scan,
		Workers:     s.cfg.Scan.Workers,
		Since:       since,
		Limit:       s.cfg.Scan.Limit,
		FirstParent: s.cfg.Scan.FirstParent,
		Reverse:     s.cfg.Scan.Reverse,
	}, nil
}
