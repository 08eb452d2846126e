package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sondr3/git-anger-management/internal/anger"
)

const (
	colAuthor  = "Author"
	colTotal   = "Total"
	rowOverall = "Overall"
)

// Table writes one row per naughty author and one column per flagged word.
// An Overall footer is added when more than one author is naughty.
func Table(w io.Writer, repo *anger.Repo, opts Options) error {
	words := Words(repo, opts.Sort)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := table.Row{colAuthor}
	for _, word := range words {
		header = append(header, word)
	}

	tw.AppendHeader(append(header, colTotal))

	for _, author := range repo.NaughtyAuthors() {
		row := table.Row{author.Name}
		for _, word := range words {
			row = append(row, humanize.Comma(int64(author.Curses[word])))
		}

		tw.AppendRow(append(row, humanize.Comma(int64(author.TotalCurses))))
	}

	if repo.NaughtyAuthorCount() > 1 {
		footer := table.Row{rowOverall}
		for _, word := range words {
			footer = append(footer, humanize.Comma(int64(repo.Curses[word])))
		}

		tw.AppendFooter(append(footer, humanize.Comma(int64(repo.TotalCurses))))
	}

	_, err := fmt.Fprintln(w, tw.Render())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}
