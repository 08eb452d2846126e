// Package gitlib provides read access to git history using libgit2.
package gitlib

import (
	"fmt"
	"path/filepath"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the path the repository was opened with.
func (r *Repository) Path() string {
	return r.path
}

// WorkDir returns the absolute working directory, or the git directory for
// bare repositories.
func (r *Repository) WorkDir() string {
	dir := r.repo.Workdir()
	if dir == "" {
		dir = r.repo.Path()
	}

	return filepath.Clean(dir)
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the commit HEAD points at.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash.Short(), err)
	}

	return &Commit{commit: commit}, nil
}

// LogOptions configures the commit log iteration.
type LogOptions struct {
	Since       *time.Time // Only include commits authored after this time.
	Limit       int        // Stop after this many commits; zero means no limit.
	FirstParent bool       // Follow only first parent (git log --first-parent).
	Reverse     bool       // Yield oldest commits first.
}

// Log returns a commit iterator starting from HEAD. Commits are yielded
// newest first unless opts.Reverse is set.
func (r *Repository) Log(opts *LogOptions) (*CommitIter, error) {
	if opts == nil {
		opts = &LogOptions{}
	}

	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		walk.Free()

		return nil, err
	}

	err = walk.Push(head.ToOid())
	if err != nil {
		walk.Free()

		return nil, fmt.Errorf("push HEAD to revwalk: %w", err)
	}

	mode := git2go.SortTime | git2go.SortTopological
	if opts.Reverse {
		mode |= git2go.SortReverse
	}

	walk.Sorting(mode)

	if opts.FirstParent {
		walk.SimplifyFirstParent()
	}

	return &CommitIter{walk: walk, repo: r, since: opts.Since, limit: opts.Limit}, nil
}
