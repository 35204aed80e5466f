// Package normalize turns free text into the keys the platform registry
// matches on, and readies inbound messages for extraction
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// folders holds transformer chains; a chain carries state between calls and
// must be Reset before reuse
var folders = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)), // zero-width joiners, BOM
			width.Fold,
			norm.NFC,
		)
	},
}

// Fold is the lookup form of s: case and width folded, accents dropped, only
// letters and digits kept, words separated by single spaces.
// "Sporty-Bet!" folds to "sportybet", "Bet 9ja" to "bet 9ja"
func Fold(s string) string {
	s = Sanitize(s)
	if s == "" {
		return ""
	}
	t := folders.Get().(transform.Transformer)
	out, _, _ := transform.String(t, s)
	t.Reset()
	folders.Put(t)

	out = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, out)
	return strings.Join(strings.Fields(out), " ")
}

// Compact is Fold without spaces, so "sporty bet" and "sportybet" share a key
func Compact(s string) string {
	return strings.ReplaceAll(Fold(s), " ", "")
}
