package anger

import (
	"cmp"
	"slices"
)

// Repo is the finished, read-only result of a run.
type Repo struct {
	// Name is derived from the scanned directory.
	Name string `json:"name" yaml:"name"`
	// TotalCommits counts every ingested commit.
	TotalCommits int `json:"total_commits" yaml:"total_commits"`
	// TotalCurses counts every flagged-word occurrence.
	TotalCurses int `json:"total_curses" yaml:"total_curses"`
	// Curses maps each flagged word to its count across all authors.
	Curses map[string]int `json:"curses" yaml:"curses"`
	// Authors maps author names to their ledgers.
	Authors map[string]*Author `json:"authors" yaml:"authors"`
}

// NaughtyAuthorCount returns how many authors used at least one flagged word.
func (r *Repo) NaughtyAuthorCount() int {
	n := 0

	for _, author := range r.Authors {
		if author.IsNaughty() {
			n++
		}
	}

	return n
}

// IsNaughty reports whether any flagged word was found in the repository.
func (r *Repo) IsNaughty() bool {
	return r.TotalCurses > 0
}

// NaughtyAuthors returns the naughty authors sorted by name.
func (r *Repo) NaughtyAuthors() []*Author {
	out := make([]*Author, 0, len(r.Authors))

	for _, author := range r.Authors {
		if author.IsNaughty() {
			out = append(out, author)
		}
	}

	sortByName(out)

	return out
}

// SortedAuthors returns every ledger, naughty or not, sorted by name. Their
// TotalCommits add up to the repository's TotalCommits.
func (r *Repo) SortedAuthors() []*Author {
	out := make([]*Author, 0, len(r.Authors))

	for _, author := range r.Authors {
		out = append(out, author)
	}

	sortByName(out)

	return out
}

// Padded returns Pad applied to the naughty authors.
func (r *Repo) Padded() []*Author {
	return r.Pad(r.NaughtyAuthors())
}

// Pad returns copies of authors in which every word seen in the repository
// has an entry, zero when the author never used it. It is meant for display
// only; neither the Repo nor the given ledgers are modified.
func (r *Repo) Pad(authors []*Author) []*Author {
	out := make([]*Author, len(authors))

	for i, author := range authors {
		padded := author.clone()
		for word := range r.Curses {
			if _, ok := padded.Curses[word]; !ok {
				padded.Curses[word] = 0
			}
		}

		out[i] = padded
	}

	return out
}

func sortByName(authors []*Author) {
	slices.SortFunc(authors, func(a, b *Author) int {
		return cmp.Compare(a.Name, b.Name)
	})
}
