package anger

import (
	"errors"
	"fmt"

	"github.com/sondr3/git-anger-management/pkg/words"
)

var (
	// ErrFinalized is returned when an Aggregate is used after Finalize.
	ErrFinalized = errors.New("aggregate already finalized")
	// ErrInvalidPartial is returned by Apply for a Partial that Scan could
	// not have produced.
	ErrInvalidPartial = errors.New("invalid partial")
)

// Aggregate accumulates author ledgers and repository totals for one run.
// It is not safe for concurrent use; concurrent producers should compute
// Partials with Scan and hand them to a single goroutine that calls Apply.
type Aggregate struct {
	name         string
	list         *words.List
	authors      map[string]*Author
	totalCommits int
	totalCurses  int
	finalized    bool
}

// NewAggregate returns an empty aggregate for the repository called name
// that matches commit messages against list.
func NewAggregate(name string, list *words.List) *Aggregate {
	return &Aggregate{
		name:    name,
		list:    list,
		authors: make(map[string]*Author),
	}
}

// Name returns the repository name.
func (a *Aggregate) Name() string {
	return a.name
}

// TotalCommits returns the number of commits ingested so far.
func (a *Aggregate) TotalCommits() int {
	return a.totalCommits
}

// TotalCurses returns the number of flagged-word occurrences seen so far.
func (a *Aggregate) TotalCurses() int {
	return a.totalCurses
}

// AuthorFor returns the ledger for name, creating a zero-valued one on first use.
func (a *Aggregate) AuthorFor(name string) *Author {
	author, ok := a.authors[name]
	if !ok {
		author = NewAuthor(name)
		a.authors[name] = author
	}

	return author
}

// Ingest scans commit and applies it. Commits lacking an author or message
// return an error wrapping ErrSkippedCommit and leave all counters untouched.
func (a *Aggregate) Ingest(commit Commit) error {
	if a.finalized {
		return ErrFinalized
	}

	part, err := Scan(a.list, commit)
	if err != nil {
		return err
	}

	return a.Apply(part)
}

// Apply adds one commit's Partial to the author ledger and repository totals.
// A Partial with an empty author, a non-positive word count, or a Curses
// value that differs from the sum of its Occurrences is rejected with
// ErrInvalidPartial and nothing is recorded.
func (a *Aggregate) Apply(part Partial) error {
	if a.finalized {
		return ErrFinalized
	}

	err := part.validate()
	if err != nil {
		return err
	}

	author := a.AuthorFor(part.Author)
	author.RecordCommit()

	for word, n := range part.Occurrences {
		author.recordOccurrences(word, n)
	}

	a.totalCurses += part.Curses
	a.totalCommits++

	return nil
}

func (p Partial) validate() error {
	if p.Author == "" {
		return fmt.Errorf("%w: commit %s has no author", ErrInvalidPartial, p.CommitID)
	}

	sum := 0

	for word, n := range p.Occurrences {
		if n <= 0 {
			return fmt.Errorf("%w: commit %s counts %q %d times", ErrInvalidPartial, p.CommitID, word, n)
		}

		sum += n
	}

	if sum != p.Curses {
		return fmt.Errorf("%w: commit %s has %d curses but %d occurrences", ErrInvalidPartial, p.CommitID, p.Curses, sum)
	}

	return nil
}

// Finalize merges every author's word counts into the repository-wide
// mapping and returns the finished Repo. The aggregate cannot be used
// afterwards.
func (a *Aggregate) Finalize() (*Repo, error) {
	if a.finalized {
		return nil, fmt.Errorf("finalize %s: %w", a.name, ErrFinalized)
	}

	a.finalized = true

	repo := &Repo{
		Name:         a.name,
		TotalCommits: a.totalCommits,
		TotalCurses:  a.totalCurses,
		Curses:       make(map[string]int),
		Authors:      a.authors,
	}

	for _, author := range a.authors {
		for word, n := range author.Curses {
			repo.Curses[word] += n
		}
	}

	a.authors = nil

	return repo, nil
}
