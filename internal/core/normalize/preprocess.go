package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxInputRunes caps how much of an inbound message is considered at all
const MaxInputRunes = 1000

// a marker only counts at a word boundary, so a@b and a bare # survive
var handleOrTag = regexp.MustCompile(`(?:^|\W)([@#]\w+)`)

// Preprocess readies an inbound message for extraction: Sanitize, cap at
// MaxInputRunes, then blank @handles and #hashtags byte for byte so offsets
// into the result still match the sanitized text
func Preprocess(s string) string {
	s = Sanitize(s)
	if utf8.RuneCountInString(s) > MaxInputRunes {
		s = firstRunes(s, MaxInputRunes)
	}
	idx := handleOrTag.FindAllStringSubmatchIndex(s, -1)
	if len(idx) == 0 {
		return s
	}
	b := []byte(s)
	for _, m := range idx {
		for i := m[2]; i < m[3]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

func firstRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// Sanitize drops invalid UTF-8 and control characters other than
// newline, carriage return and tab. Clean input is returned as is
func Sanitize(s string) string {
	if utf8.ValidString(s) && strings.IndexFunc(s, unwanted) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unwanted(r) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))
}

// unwanted covers C0, DEL and C1
func unwanted(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t'
}
