// Package extract turns message text into ordered code and platform spans
package extract

import (
	"context"
	"sort"
	"strings"

	"flexcode/internal/core/platform"
)

// Kind tags a span
type Kind uint8

const (
	// KindCode is a betting code candidate
	KindCode Kind = iota + 1
	// KindPlatform is a platform mention resolved through the registry
	KindPlatform
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "CODE"
	case KindPlatform:
		return "PLATFORM"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the kind as its upper-case name
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Cue is the directional word anchoring a platform mention
type Cue uint8

const (
	// CueNone means no directional word precedes the mention
	CueNone Cue = iota
	// CueFrom covers "from"
	CueFrom
	// CueTo covers "to" and "into"
	CueTo
	// CueOn covers "on"
	CueOn
)

func (c Cue) String() string {
	switch c {
	case CueFrom:
		return "from"
	case CueTo:
		return "to"
	case CueOn:
		return "on"
	default:
		return ""
	}
}

// MarshalText renders the cue word, empty for CueNone
func (c Cue) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Source reports whether the cue marks the originating platform
func (c Cue) Source() bool { return c == CueFrom || c == CueOn }

// Span is [Start,End) in bytes over the text handed to Extract. Spans are
// created once and never mutated by later stages
type Span struct {
	Kind     Kind              `json:"kind"`
	Text     string            `json:"text"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Platform platform.Platform `json:"-"`
	Clause   int               `json:"clause"`
	Cue      Cue               `json:"cue,omitempty"`
}

// Extractor produces spans in text order. Implementations never fail: a message
// with nothing recognizable yields no spans
type Extractor interface {
	Extract(ctx context.Context, text string) []Span
}

// MaxCodeLen bounds code candidates; longer runs are prose or URLs
const MaxCodeLen = 15

// MinCodeLen is the shortest run treated as a code
const MinCodeLen = 4

// words that look like codes when a message is typed in capitals
var stopCodes = map[string]struct{}{
	"CONVERT": {}, "CONVERTS": {}, "CONVERSION": {}, "CODE": {}, "CODES": {},
	"BOOKING": {}, "BOOK": {}, "SLIP": {}, "BETSLIP": {}, "TICKET": {},
	"PLEASE": {}, "THANKS": {}, "THANK": {}, "HELP": {}, "FROM": {}, "INTO": {},
	"ONTO": {}, "THIS": {}, "THAT": {}, "THESE": {}, "THOSE": {}, "WITH": {},
	"HERE": {}, "THERE": {}, "WANT": {}, "NEED": {}, "ALSO": {}, "THEN": {},
	"WHAT": {}, "BOTH": {}, "SOME": {}, "JUST": {}, "ASAP": {},
}

var cueWords = map[string]Cue{"from": CueFrom, "to": CueTo, "into": CueTo, "on": CueOn}

// words skipped when looking back from a platform mention to its cue
var fillers = map[string]struct{}{"the": {}, "my": {}, "a": {}, "an": {}, "your": {}, "our": {}}

// Rules is the deterministic rule-based extractor
type Rules struct {
	reg *platform.Registry
}

// NewRules returns a rule-based extractor over reg
func NewRules(reg *platform.Registry) *Rules { return &Rules{reg: reg} }

// Extract implements Extractor
func (x *Rules) Extract(_ context.Context, text string) []Span {
	toks := tokenize(text)
	if len(toks) == 0 {
		return nil
	}
	var spans []Span
	for i := 0; i < len(toks); {
		if _, cue := cueWords[strings.ToLower(toks[i].text)]; cue {
			i++
			continue
		}
		if p, n, ok := x.matchPlatform(text, toks, i); ok {
			last := toks[i+n-1]
			spans = append(spans, Span{
				Kind:     KindPlatform,
				Text:     text[toks[i].start:last.end],
				Start:    toks[i].start,
				End:      last.end,
				Platform: p,
				Clause:   toks[i].clause,
				Cue:      cueBefore(toks, i),
			})
			i += n
			continue
		}
		if CodeLike(toks[i].text) {
			spans = append(spans, Span{
				Kind:   KindCode,
				Text:   toks[i].text,
				Start:  toks[i].start,
				End:    toks[i].end,
				Clause: toks[i].clause,
			})
		}
		i++
	}
	return mergeClauses(spans)
}

// matchPlatform tries the longest alias starting at toks[i]. Multi-word
// candidates and tokens containing digits must match an alias exactly; single
// words may be one typo away
func (x *Rules) matchPlatform(text string, toks []token, i int) (platform.Platform, int, bool) {
	maxN := x.reg.MaxAliasWords()
	for n := min(maxN, len(toks)-i); n >= 1; n-- {
		if !sameRun(text, toks[i:i+n]) {
			continue
		}
		cand := text[toks[i].start:toks[i+n-1].end]
		var (
			p  platform.Platform
			ok bool
		)
		if n > 1 || hasDigit(cand) {
			p, ok = x.reg.ResolveExact(cand)
		} else {
			p, ok = x.reg.Resolve(cand)
		}
		if ok {
			return p, n, true
		}
	}
	return platform.Platform{}, 0, false
}

// sameRun reports whether toks sit in one clause separated only by joinable
// gaps, with no cue word among them
func sameRun(text string, toks []token) bool {
	for j := range toks {
		if _, cue := cueWords[strings.ToLower(toks[j].text)]; cue && len(toks) > 1 {
			return false
		}
		if j == 0 {
			continue
		}
		if toks[j].clause != toks[0].clause || !joinable(text[toks[j-1].end:toks[j].start]) {
			return false
		}
	}
	return true
}

// cueBefore looks back from toks[i] across filler words for a directional cue
func cueBefore(toks []token, i int) Cue {
	for j := i - 1; j >= 0 && toks[j].clause == toks[i].clause; j-- {
		w := strings.ToLower(toks[j].text)
		if c, ok := cueWords[w]; ok {
			return c
		}
		if _, ok := fillers[w]; !ok {
			return CueNone
		}
	}
	return CueNone
}

// CodeLike reports whether a token has the shape of a betting code: 4 to 15
// ASCII letters and digits, written without lower case unless it mixes
// letters with digits, and not a common command word
func CodeLike(s string) bool {
	if len(s) < MinCodeLen || len(s) > MaxCodeLen {
		return false
	}
	var digit, lower, letter bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digit = true
		case c >= 'a' && c <= 'z':
			lower, letter = true, true
		case c >= 'A' && c <= 'Z':
			letter = true
		default:
			return false
		}
	}
	if lower && !(digit && letter) {
		return false
	}
	_, stop := stopCodes[strings.ToUpper(s)]
	return !stop
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

// mergeClauses regroups spans so codes share the platforms the writer meant:
//   - a clause without codes folds into the next clause
//   - a clause with codes but no platforms folds back into the previous clause
//     when that clause lists its platforms before all of its codes
//     ("from Stake to SportyBet: ABC123, XYZ789")
//   - otherwise it folds forward when a run of code-only clauses ends in one
//     that names platforms ("ABC123, DEF456 and XYZ789 from Stake to SportyBet")
//
// Clause indices are renumbered from zero afterwards
func mergeClauses(spans []Span) []Span {
	if len(spans) == 0 {
		return spans
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	var groups [][]Span
	for i := 0; i < len(spans); {
		j := i
		for j < len(spans) && spans[j].Clause == spans[i].Clause {
			j++
		}
		groups = append(groups, spans[i:j:j])
		i = j
	}

	var out [][]Span
	var carry []Span
	for gi, g := range groups {
		if len(carry) > 0 {
			g = append(append([]Span(nil), carry...), g...)
			carry = nil
		}
		codes, plats := count(g)
		last := gi == len(groups)-1
		switch {
		case codes == 0 && !last:
			carry = g
			continue
		case plats == 0 && len(out) > 0 && listsPlatformsFirst(out[len(out)-1]):
			out[len(out)-1] = append(out[len(out)-1], g...)
			continue
		case plats == 0 && !last && namesPlatforms(groups[gi+1:]):
			carry = g
			continue
		}
		out = append(out, g)
	}

	res := make([]Span, 0, len(spans))
	for ci, g := range out {
		for _, s := range g {
			s.Clause = ci
			res = append(res, s)
		}
	}
	return res
}

// namesPlatforms reports whether any of groups carries a platform span
func namesPlatforms(groups [][]Span) bool {
	for _, g := range groups {
		if _, plats := count(g); plats > 0 {
			return true
		}
	}
	return false
}

func count(g []Span) (codes, plats int) {
	for _, s := range g {
		if s.Kind == KindCode {
			codes++
		} else {
			plats++
		}
	}
	return codes, plats
}

// listsPlatformsFirst reports whether every platform in g precedes every code
func listsPlatformsFirst(g []Span) bool {
	lastPlat, firstCode := -1, -1
	for _, s := range g {
		switch s.Kind {
		case KindPlatform:
			lastPlat = s.Start
		case KindCode:
			if firstCode < 0 {
				firstCode = s.Start
			}
		}
	}
	return lastPlat >= 0 && firstCode > lastPlat
}
