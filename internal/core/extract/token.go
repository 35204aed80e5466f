package extract

import (
	"unicode"
	"unicode/utf8"
)

// isWord reports whether r belongs inside a token. Letters and numbers only;
// underscores, hyphens and other punctuation separate tokens
func isWord(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// expandToToken widens [start,end) to the containing token delimited by non-word chars
func expandToToken(s string, start, end int) (int, int) {
	ls, rs := start, end
	for ls > 0 {
		r, sz := utf8.DecodeLastRuneInString(s[:ls])
		if !isWord(r) {
			break
		}
		ls -= sz
	}
	for rs < len(s) {
		r, sz := utf8.DecodeRuneInString(s[rs:])
		if !isWord(r) {
			break
		}
		rs += sz
	}
	return ls, rs
}

type token struct {
	start, end int
	text       string
	clause     int
}

// tokenize splits s into word tokens and assigns clause indices. Clauses break
// on ',' ';' '&' and newlines, on '.', '!' or '?' followed by space, and on the
// word "and", which is consumed and never becomes a token
func tokenize(s string) []token {
	var (
		out    []token
		clause int
		gapAt  int
		i      int
	)
	for i < len(s) {
		r, sz := utf8.DecodeRuneInString(s[i:])
		if !isWord(r) {
			i += sz
			continue
		}
		start := i
		for i < len(s) {
			r, sz = utf8.DecodeRuneInString(s[i:])
			if !isWord(r) {
				break
			}
			i += sz
		}
		if len(out) > 0 && breaksClause(s[gapAt:start]) {
			clause++
		}
		gapAt = i
		word := s[start:i]
		if isAnd(word) {
			if len(out) > 0 {
				clause++
			}
			continue
		}
		out = append(out, token{start: start, end: i, text: word, clause: clause})
	}
	return out
}

func isAnd(w string) bool {
	return len(w) == 3 && (w[0]|0x20) == 'a' && (w[1]|0x20) == 'n' && (w[2]|0x20) == 'd'
}

// breaksClause inspects the separator text between two tokens
func breaksClause(gap string) bool {
	for i := 0; i < len(gap); i++ {
		switch gap[i] {
		case ',', ';', '&', '\n':
			return true
		case '.', '!', '?':
			if i+1 < len(gap) && (gap[i+1] == ' ' || gap[i+1] == '\t' || gap[i+1] == '\r' || gap[i+1] == '\n') {
				return true
			}
		}
	}
	return false
}

// joinable reports whether two adjacent tokens may form one multi-word alias
func joinable(gap string) bool {
	if len(gap) == 0 || len(gap) > 3 {
		return false
	}
	for i := 0; i < len(gap); i++ {
		switch gap[i] {
		case ' ', '-', '.', '_', '\'':
		default:
			return false
		}
	}
	return true
}
