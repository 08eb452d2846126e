// Package anger accumulates flagged-word usage across a repository's commits.
//
// An Aggregate is fed commits one at a time while it is accumulating and is
// turned into a read-only Repo by Finalize. Only a Repo exposes the merged
// repository-wide word counts.
package anger

import "maps"

// Author is the ledger of one commit author, keyed by the exact author name.
type Author struct {
	// Name is the author display name as recorded in the commit.
	Name string `json:"name" yaml:"name"`
	// TotalCommits counts every commit attributed to the author.
	TotalCommits int `json:"total_commits" yaml:"total_commits"`
	// TotalCurses counts every flagged-word occurrence by the author.
	TotalCurses int `json:"total_curses" yaml:"total_curses"`
	// Curses maps each observed flagged word to its occurrence count.
	Curses map[string]int `json:"curses" yaml:"curses"`
}

// NewAuthor returns a zero-valued ledger for name.
func NewAuthor(name string) *Author {
	return &Author{
		Name:   name,
		Curses: make(map[string]int),
	}
}

// RecordCommit counts one more commit for the author.
func (a *Author) RecordCommit() {
	a.TotalCommits++
}

// RecordOccurrence counts one occurrence of word.
func (a *Author) RecordOccurrence(word string) {
	a.recordOccurrences(word, 1)
}

func (a *Author) recordOccurrences(word string, n int) {
	a.TotalCurses += n
	a.Curses[word] += n
}

// IsNaughty reports whether the author has used at least one flagged word.
func (a *Author) IsNaughty() bool {
	return len(a.Curses) > 0
}

func (a *Author) clone() *Author {
	out := &Author{
		Name:         a.Name,
		TotalCommits: a.TotalCommits,
		TotalCurses:  a.TotalCurses,
		Curses:       make(map[string]int, len(a.Curses)),
	}

	maps.Copy(out.Curses, a.Curses)

	return out
}
