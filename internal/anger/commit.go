package anger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sondr3/git-anger-management/pkg/words"
)

var (
	// ErrSkippedCommit marks a commit that lacks an author name or a message.
	// It is recoverable: the commit is ignored and nothing is counted.
	ErrSkippedCommit = errors.New("commit skipped")
	// ErrMissingAuthor is joined with ErrSkippedCommit when the author is absent.
	ErrMissingAuthor = errors.New("missing author name")
	// ErrMissingMessage is joined with ErrSkippedCommit when the message is absent.
	ErrMissingMessage = errors.New("missing commit message")
)

// Commit is one history entry as seen by the aggregation core.
type Commit struct {
	// ID identifies the commit in warnings, usually the hex hash.
	ID      string
	Author  string
	Message string

	HasAuthor  bool
	HasMessage bool
}

// NewCommit returns a commit with both author and message present.
func NewCommit(id, author, message string) Commit {
	return Commit{
		ID:         id,
		Author:     author,
		Message:    message,
		HasAuthor:  true,
		HasMessage: true,
	}
}

// Partial is the complete contribution of a single commit. It is computed
// without touching any ledger so that it can be produced concurrently and
// applied in one step.
type Partial struct {
	CommitID string
	Author   string
	// Occurrences maps each flagged word in the message to its count.
	Occurrences map[string]int
	// Curses is the sum of Occurrences.
	Curses int
}

// Scan lowercases the commit message, tokenizes it and counts flagged words.
// It returns an error wrapping ErrSkippedCommit when the commit cannot be
// attributed.
func Scan(list *words.List, commit Commit) (Partial, error) {
	err := commit.validate()
	if err != nil {
		return Partial{}, err
	}

	part := Partial{
		CommitID:    commit.ID,
		Author:      commit.Author,
		Occurrences: make(map[string]int),
	}

	for tok := range words.Tokens(strings.ToLower(commit.Message)) {
		if list.IsFlagged(tok) {
			part.Occurrences[tok]++
			part.Curses++
		}
	}

	return part, nil
}

func (c Commit) validate() error {
	var reasons []error

	if !c.HasAuthor || c.Author == "" {
		reasons = append(reasons, ErrMissingAuthor)
	}

	if !c.HasMessage {
		reasons = append(reasons, ErrMissingMessage)
	}

	if len(reasons) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s: %w", ErrSkippedCommit, c.ID, errors.Join(reasons...))
}
