package gitlib

import (
	"errors"
	"fmt"
	"io"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// Commit wraps a libgit2 commit.
type Commit struct {
	commit *git2go.Commit
}

// Hash returns the commit hash.
func (c *Commit) Hash() Hash {
	return HashFromOid(c.commit.Id())
}

// Author returns the commit author. A commit without an author signature
// yields the zero Signature.
func (c *Commit) Author() Signature {
	return newSignature(c.commit.Author())
}

// Committer returns the commit committer.
func (c *Commit) Committer() Signature {
	return newSignature(c.commit.Committer())
}

// Message returns the raw commit message. It is not guaranteed to be valid UTF-8.
func (c *Commit) Message() string {
	return c.commit.Message()
}

// Summary returns the first line of the commit message.
func (c *Commit) Summary() string {
	return c.commit.Summary()
}

// Free releases the commit resources.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}

// CommitIter iterates over commits of a revision walk.
type CommitIter struct {
	walk  *git2go.RevWalk
	repo  *Repository
	since *time.Time
	limit int
	seen  int
}

// Next returns the next commit in the iteration, or io.EOF when the walk is
// exhausted. Any other error means the history could not be read.
func (ci *CommitIter) Next() (*Commit, error) {
	if ci.walk == nil || (ci.limit > 0 && ci.seen >= ci.limit) {
		return nil, io.EOF
	}

	for {
		oid := new(git2go.Oid)

		err := ci.walk.Next(oid)
		if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
			ci.Close()

			return nil, io.EOF
		}

		if err != nil {
			return nil, fmt.Errorf("revwalk next: %w", err)
		}

		commit, err := ci.repo.repo.LookupCommit(oid)
		if err != nil {
			return nil, fmt.Errorf("lookup commit %s: %w", oid.String(), err)
		}

		// Author dates are not monotonic in a committer-time walk.
		if ci.since != nil && commit.Author().When.Before(*ci.since) {
			commit.Free()

			continue
		}

		ci.seen++

		return &Commit{commit: commit}, nil
	}
}

// ForEach calls the callback for each commit. The commit is freed after the
// callback returns, so it must not be retained.
func (ci *CommitIter) ForEach(cb func(*Commit) error) error {
	defer ci.Close()

	for {
		commit, err := ci.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		cbErr := cb(commit)
		commit.Free()

		if cbErr != nil {
			return cbErr
		}
	}
}

// Close releases resources.
func (ci *CommitIter) Close() {
	if ci.walk != nil {
		ci.walk.Free()
		ci.walk = nil
	}
}
