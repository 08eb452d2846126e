package render

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sondr3/git-anger-management/internal/anger"
)

// report is the serialized form of a Repo. Authors holds every ledger, not
// only the naughty ones, as a list sorted by name so the output is stable.
type report struct {
	Name         string          `json:"name"          yaml:"name"`
	TotalCommits int             `json:"total_commits" yaml:"total_commits"`
	TotalCurses  int             `json:"total_curses"  yaml:"total_curses"`
	Curses       map[string]int  `json:"curses"        yaml:"curses"`
	Authors      []*anger.Author `json:"authors"       yaml:"authors"`
}

func newReport(repo *anger.Repo, pad bool) report {
	curses := repo.Curses
	if curses == nil {
		curses = map[string]int{}
	}

	return report{
		Name:         repo.Name,
		TotalCommits: repo.TotalCommits,
		TotalCurses:  repo.TotalCurses,
		Curses:       curses,
		Authors:      reportAuthors(repo, pad),
	}
}

func reportAuthors(repo *anger.Repo, pad bool) []*anger.Author {
	all := repo.SortedAuthors()
	if pad {
		return repo.Pad(all)
	}

	return all
}

// JSON writes repo as an indented JSON document.
func JSON(w io.Writer, repo *anger.Repo, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(newReport(repo, opts.Pad))
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// YAML writes the same document as JSON in YAML.
func YAML(w io.Writer, repo *anger.Repo, opts Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(newReport(repo, opts.Pad))
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}
