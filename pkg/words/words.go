// Package words holds the flagged-word list and the commit message tokenizer.
package words

import (
	"bufio"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

//go:embed words.txt
var builtin string

// ErrEmptyList is returned when a word list source contains no words.
var ErrEmptyList = errors.New("word list is empty")

// List is an immutable set of lowercase flagged words.
type List struct {
	set map[string]struct{}
}

// New builds a List from the given words. Words are trimmed and lowercased;
// blank entries are ignored.
func New(words []string) *List {
	set := make(map[string]struct{}, len(words))

	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}

		set[w] = struct{}{}
	}

	return &List{set: set}
}

// Parse reads one word per line from r.
func Parse(r io.Reader) (*List, error) {
	var words []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		words = append(words, line)
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	if len(words) == 0 {
		return nil, ErrEmptyList
	}

	return New(words), nil
}

// LoadFile reads a newline-delimited word list from path.
func LoadFile(path string) (*List, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer file.Close()

	list, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return list, nil
}

var defaultList = sync.OnceValue(func() *List {
	list, err := Parse(strings.NewReader(builtin))
	if err != nil {
		panic("words: compiled-in word list is unusable: " + err.Error())
	}

	return list
})

// Default returns the compiled-in word list. It is parsed once per process.
func Default() *List {
	return defaultList()
}

// IsFlagged reports whether word is exactly one of the listed words.
// The caller is expected to pass an already lowercased token.
func (l *List) IsFlagged(word string) bool {
	_, ok := l.set[word]

	return ok
}

// Len returns the number of distinct words.
func (l *List) Len() int {
	return len(l.set)
}

// Ready reports ErrEmptyList when nothing would ever be flagged. It has
// the shape of a readiness check.
func (l *List) Ready(context.Context) error {
	if l.Len() == 0 {
		return ErrEmptyList
	}

	return nil
}

// Words returns the listed words in sorted order.
func (l *List) Words() []string {
	out := make([]string, 0, len(l.set))
	for w := range l.set {
		out = append(out, w)
	}

	slices.Sort(out)

	return out
}
