package words

import (
	"iter"
	"strings"
	"unicode"
)

// Tokens yields the letter runs of s in order. Every rune that is not a
// letter separates tokens and empty runs are dropped, so "inv!alid" yields
// "inv" and "alid". No case folding is performed here.
func Tokens(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for tok := range strings.FieldsFuncSeq(s, isSeparator) {
			if !yield(tok) {
				return
			}
		}
	}
}

// Split collects Tokens(s) into a slice.
func Split(s string) []string {
	return strings.FieldsFunc(s, isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r)
}
