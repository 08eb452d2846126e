package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/internal/observability"
	"github.com/sondr3/git-anger-management/internal/render"
)

// rootFlagKeys maps config keys to the root command's flags.
var rootFlagKeys = map[string]string{
	"scan.workers":      "workers",
	"scan.since":        "since",
	"scan.limit":        "limit",
	"scan.first_parent": "first-parent",
	"scan.reverse":      "reverse",
	"scan.words_file":   "words",
	"output.format":     "format",
	"output.sort":       "sort",
	"output.pad":        "pad",
	"output.no_color":   "no-color",
}

type rootCommand struct {
	global *globalOptions

	summaryOnly bool
	json        bool
}

// NewRootCommand creates the git-anger-management command tree.
func NewRootCommand() *cobra.Command {
	rc := &rootCommand{global: &globalOptions{}}

	cmd := &cobra.Command{
		Use:   binaryName + " [directory]",
		Short: "Count the curse words in a repository's commit messages",
		Long: `git-anger-management walks the commit history of a Git repository and
counts how often each author used a flagged word in a commit message.

Run it as "git anger-management" inside a repository, or pass a directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.run,
	}

	rc.global.register(cmd)

	flags := cmd.Flags()
	flags.BoolVarP(&rc.summaryOnly, "repo", "r", false, "print only the repository summary")
	flags.BoolVarP(&rc.json, "json", "j", false, "output JSON, same as --format json")
	flags.String("format", "table", "output format: "+strings.Join(render.Formats(), ", "))
	flags.String("sort", "alpha", "word column order: alpha or count")
	flags.Bool("pad", false, "list every word for every author, zero when unused")
	flags.Bool("no-color", false, "disable colored output")
	flags.Int("workers", 0, "number of scanning goroutines (0 or 1 = sequential)")
	flags.String("since", "", "only count commits after this time (e.g. '720h', '2024-01-01', RFC3339)")
	flags.Int("limit", 0, "maximum number of commits to scan (0 = no limit)")
	flags.Bool("first-parent", false, "follow only the first parent of merge commits")
	flags.Bool("reverse", false, "walk oldest commit first")
	flags.String("words", "", "newline-delimited word list to use instead of the built-in one")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newSchemaCommand())
	cmd.AddCommand(newServeCommand(rc.global))
	cmd.AddCommand(newMCPCommand(rc.global))

	return cmd
}

func (rc *rootCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := rc.global.start(cmd, observability.ModeCLI, bind(cmd, rootFlagKeys))
	if err != nil {
		return err
	}
	defer sess.close()

	opts, err := rc.renderOptions(sess)
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

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	path, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}

	if !rc.global.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "Crunching commits...")
	}

	ctx, span := sess.providers.Tracer.Start(cmd.Context(), "anger.scan")
	defer span.End()

	span.SetAttributes(attribute.String("repo.path", path), attribute.Int("scan.workers", scanOpts.Workers))

	repo, stats, err := history.Scan(ctx, path, scanOpts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	if rc.global.verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Took %s to parse %s commits in %s\n",
			stats.Duration.Round(time.Millisecond), humanize.Comma(int64(stats.Ingested)), repo.Name)
	}

	return render.Render(cmd.OutOrStdout(), repo, opts)
}

func (rc *rootCommand) renderOptions(sess *session) (render.Options, error) {
	formatName := sess.cfg.Output.Format
	if rc.json {
		formatName = string(render.FormatJSON)
	}

	format, err := render.ParseFormat(formatName)
	if err != nil {
		return render.Options{}, err
	}

	order, err := render.ParseSort(sess.cfg.Output.Sort)
	if err != nil {
		return render.Options{}, err
	}

	return render.Options{
		Format:      format,
		Sort:        order,
		Pad:         sess.cfg.Output.Pad,
		NoColor:     sess.cfg.Output.NoColor,
		SummaryOnly: rc.summaryOnly,
	}, nil
}
