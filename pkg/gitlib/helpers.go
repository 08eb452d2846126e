package gitlib

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidTimeFormat is returned when a time string cannot be parsed.
	ErrInvalidTimeFormat = errors.New("cannot parse time")
	// ErrRemoteNotSupported is returned when a remote repository URI is provided.
	ErrRemoteNotSupported = errors.New("remote repositories not supported")
)

var scpLikeRemote = regexp.MustCompile(`^[A-Za-z]\w*@[A-Za-z0-9][\w.]*:`)

// OpenLocal opens a local repository, rejecting remote URIs up front so
// the caller gets a clear error instead of a libgit2 lookup failure.
func OpenLocal(uri string) (*Repository, error) {
	if strings.Contains(uri, "://") || scpLikeRemote.MatchString(uri) {
		return nil, fmt.Errorf("%w: %s", ErrRemoteNotSupported, uri)
	}

	return OpenRepository(uri)
}

// ParseTime parses a time string in various formats:
// - Duration relative to now (e.g. "24h")
// - RFC3339 (e.g. "2024-01-01T00:00:00Z")
// - Date only (e.g. "2024-01-01").
func ParseTime(s string) (time.Time, error) {
	d, durationErr := time.ParseDuration(s)
	if durationErr == nil {
		return time.Now().Add(-d), nil
	}

	parsedTime, rfc3339Err := time.Parse(time.RFC3339, s)
	if rfc3339Err == nil {
		return parsedTime, nil
	}

	parsedTime, dateOnlyErr := time.Parse(time.DateOnly, s)
	if dateOnlyErr == nil {
		return parsedTime, nil
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimeFormat, s)
}
