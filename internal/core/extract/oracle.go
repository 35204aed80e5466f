package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"flexcode/internal/core/platform"
	"flexcode/internal/platform/logger"
)

// RawSpan is the bare shape an external oracle returns. Offsets are bytes over
// the text it was given
type RawSpan struct {
	Kind  Kind
	Text  string
	Start int
	End   int
}

// Oracle is an external entity recognizer, typically an NER model behind HTTP
type Oracle interface {
	Spans(ctx context.Context, text string) ([]RawSpan, error)
}

// OracleExtractor asks an Oracle for spans and shapes them into the same
// output the rule-based extractor produces. Platform spans must resolve
// through the registry. Code spans found by the rules are always kept so a
// model miss never drops a code. Any oracle error falls back to the rules
type OracleExtractor struct {
	oracle Oracle
	rules  *Rules
	reg    *platform.Registry
}

// NewOracleExtractor wires oracle in front of the rule-based extractor
func NewOracleExtractor(o Oracle, reg *platform.Registry) *OracleExtractor {
	return &OracleExtractor{oracle: o, rules: NewRules(reg), reg: reg}
}

// Extract implements Extractor
func (x *OracleExtractor) Extract(ctx context.Context, text string) []Span {
	ruled := x.rules.Extract(ctx, text)
	raw, err := x.oracle.Spans(ctx, text)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("extract: oracle failed; using rules")
		return ruled
	}
	return Annotate(text, x.reg, append(fromSpans(ruled), raw...))
}

func fromSpans(in []Span) []RawSpan {
	out := make([]RawSpan, 0, len(in))
	for _, s := range in {
		out = append(out, RawSpan{Kind: s.Kind, Text: s.Text, Start: s.Start, End: s.End})
	}
	return out
}

// Annotate validates raw spans against text, widens them to token boundaries,
// resolves platforms, drops overlaps (longest wins, platforms over codes on a
// tie) and assigns clause indices and cues exactly as the rule-based
// extractor would
func Annotate(text string, reg *platform.Registry, raw []RawSpan) []Span {
	toks := tokenize(text)
	if len(toks) == 0 || len(raw) == 0 {
		return nil
	}

	var cands []Span
	for _, r := range raw {
		if r.Start < 0 || r.End > len(text) || r.Start >= r.End {
			continue
		}
		start, end := trimToWords(text, r.Start, r.End)
		if start >= end {
			continue
		}
		start, end = expandToToken(text, start, end)
		surface := text[start:end]
		s := Span{Kind: r.Kind, Text: surface, Start: start, End: end}
		switch r.Kind {
		case KindPlatform:
			p, ok := reg.Resolve(surface)
			if !ok {
				continue
			}
			s.Platform = p
		case KindCode:
			if !CodeLike(surface) {
				continue
			}
			if _, ok := reg.ResolveExact(surface); ok {
				continue
			}
		default:
			continue
		}
		cands = append(cands, s)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		li, lj := cands[i].End-cands[i].Start, cands[j].End-cands[j].Start
		if li != lj {
			return li > lj
		}
		if cands[i].Kind != cands[j].Kind {
			return cands[i].Kind == KindPlatform
		}
		return cands[i].Start < cands[j].Start
	})
	var kept []Span
	for _, c := range cands {
		overlap := false
		for _, k := range kept {
			if c.Start < k.End && k.Start < c.End {
				overlap = true
				break
			}
		}
		if !overlap {
			kept = append(kept, c)
		}
	}

	for i := range kept {
		ti := tokenAt(toks, kept[i].Start)
		if ti < 0 {
			continue
		}
		kept[i].Clause = toks[ti].clause
		if kept[i].Kind == KindPlatform {
			kept[i].Cue = cueBefore(toks, ti)
		}
	}
	return mergeClauses(kept)
}

// tokenAt returns the index of the token starting at off, or -1
func tokenAt(toks []token, off int) int {
	i := sort.Search(len(toks), func(i int) bool { return toks[i].start >= off })
	if i < len(toks) && toks[i].start == off {
		return i
	}
	return -1
}

// trimToWords drops non-word runes from both edges of [start,end)
func trimToWords(s string, start, end int) (int, int) {
	for start < end {
		r, sz := utf8.DecodeRuneInString(s[start:end])
		if isWord(r) {
			break
		}
		start += sz
	}
	for end > start {
		r, sz := utf8.DecodeLastRuneInString(s[start:end])
		if isWord(r) {
			break
		}
		end -= sz
	}
	return start, end
}

// Explain renders spans one per line, for CLI and debug output
func Explain(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		fmt.Fprintf(&b, "%-8s %-12q @%d..%d clause=%d", s.Kind, s.Text, s.Start, s.End, s.Clause)
		if s.Kind == KindPlatform {
			fmt.Fprintf(&b, " platform=%s", s.Platform.ID)
			if s.Cue != CueNone {
				fmt.Fprintf(&b, " cue=%s", s.Cue)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
