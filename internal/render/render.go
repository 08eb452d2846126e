// Package render turns a finished anger.Repo into human and machine
// readable reports.
package render

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sondr3/git-anger-management/internal/anger"
)

// Format selects the report layout.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatList  Format = "list"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatPlot  Format = "plot"
)

// SortOrder selects the order of word columns.
type SortOrder string

// Supported column orders.
const (
	SortAlpha SortOrder = "alpha"
	SortCount SortOrder = "count"
)

var (
	// ErrUnknownFormat is returned for a format name that is not supported.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrUnknownSort is returned for a sort order that is not supported.
	ErrUnknownSort = errors.New("unknown sort order")
)

// Formats lists every supported format name.
func Formats() []string {
	return []string{string(FormatTable), string(FormatList), string(FormatJSON), string(FormatYAML), string(FormatPlot)}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatTable, nil
	}

	if !slices.Contains(Formats(), string(f)) {
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}

	return f, nil
}

// ParseSort validates a sort order name.
func ParseSort(name string) (SortOrder, error) {
	switch s := SortOrder(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return SortAlpha, nil
	case SortAlpha, SortCount:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q (want alpha or count)", ErrUnknownSort, name)
	}
}

// Options controls rendering.
type Options struct {
	Format Format
	Sort   SortOrder
	// Pad fills every author with zero counts for words used elsewhere in
	// the repository. The table is always padded.
	Pad     bool
	NoColor bool
	// SummaryOnly prints just the repository summary line.
	SummaryOnly bool
}

// Render writes repo to w in the layout chosen by opts.
func Render(w io.Writer, repo *anger.Repo, opts Options) error {
	if opts.SummaryOnly {
		_, err := fmt.Fprintln(w, Summary(repo))
		if err != nil {
			return fmt.Errorf("write summary: %w", err)
		}

		return nil
	}

	switch opts.Format {
	case FormatTable, "":
		return Table(w, repo, opts)
	case FormatList:
		return List(w, repo, opts)
	case FormatJSON:
		return JSON(w, repo, opts)
	case FormatYAML:
		return YAML(w, repo, opts)
	case FormatPlot:
		return Plot(w, repo, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// Summary formats the one-line repository summary,
// "name: (curses/commits) naughty commits/commits".
func Summary(repo *anger.Repo) string {
	return summaryLine(repo.Name, repo.TotalCurses, repo.TotalCommits)
}

func summaryLine(name string, curses, commits int) string {
	return fmt.Sprintf("%s: (%s/%s) naughty commits/commits",
		name, humanize.Comma(int64(curses)), humanize.Comma(int64(commits)))
}

// Words returns the repository's flagged words in column order: by name, or
// by descending count with ties broken by name.
func Words(repo *anger.Repo, order SortOrder) []string {
	out := make([]string, 0, len(repo.Curses))
	for word := range repo.Curses {
		out = append(out, word)
	}

	if order == SortCount {
		slices.SortFunc(out, func(a, b string) int {
			if c := repo.Curses[b] - repo.Curses[a]; c != 0 {
				return c
			}

			return strings.Compare(a, b)
		})

		return out
	}

	slices.Sort(out)

	return out
}

// authors returns the naughty authors to print, padded when requested.
func authors(repo *anger.Repo, pad bool) []*anger.Author {
	if pad {
		return repo.Padded()
	}

	return repo.NaughtyAuthors()
}
