package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sondr3/git-anger-management/internal/anger"
)

// List writes the repository summary followed by one block per naughty
// author: a summary line and an indented "word: count" line per word.
func List(w io.Writer, repo *anger.Repo, opts Options) error {
	title := color.New(color.FgRed, color.Bold)
	name := color.New(color.FgYellow)

	if opts.NoColor {
		title.DisableColor()
		name.DisableColor()
	}

	var b strings.Builder

	title.Fprintln(&b, Summary(repo))

	for _, author := range authors(repo, opts.Pad) {
		b.WriteString("\n")
		name.Fprintln(&b, summaryLine(author.Name, author.TotalCurses, author.TotalCommits))

		for _, word := range authorWords(author, opts.Sort) {
			fmt.Fprintf(&b, "  %s: %s\n", word, humanize.Comma(int64(author.Curses[word])))
		}
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write list: %w", err)
	}

	return nil
}

func authorWords(author *anger.Author, order SortOrder) []string {
	return Words(&anger.Repo{Curses: author.Curses}, order)
}
