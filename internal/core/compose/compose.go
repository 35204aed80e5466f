// Package compose renders conversion outcomes and clarification asks into one
// bounded reply
package compose

import (
	"sort"
	"strings"
	"unicode/utf8"

	"flexcode/internal/core/assemble"
)

const (
	// Header opens every reply that carries at least one converted code
	Header = "Converted codes: "
	// FailedHeader opens replies where every attempted conversion failed
	FailedHeader = "Could not convert: "
	// Ellipsis marks a truncated reply
	Ellipsis = "…"
	// NotUnderstood is sent when the message names no codes at all
	NotUnderstood = "Sorry, I could not understand that. Try: Convert Stake code ABC123 to SportyBet"
)

// Compose renders outcomes (in request order) followed by one clarification
// sentence covering every ambiguous request. maxLen bounds the reply in runes;
// zero or negative means unbounded
func Compose(outcomes []assemble.Outcome, ambiguous []assemble.Request, maxLen int) string {
	if len(outcomes) == 0 && len(ambiguous) == 0 {
		return bound([]string{NotUnderstood}, nil, maxLen)
	}

	ordered := make([]assemble.Outcome, len(outcomes))
	copy(ordered, outcomes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Request.Index < ordered[j].Request.Index })

	var (
		units []string
		seps  []string
	)
	if len(ordered) > 0 {
		header := FailedHeader
		for _, o := range ordered {
			if o.OK() {
				header = Header
				break
			}
		}
		for i, o := range ordered {
			frag := Fragment(o)
			if i == 0 {
				frag = header + frag
			} else {
				seps = append(seps, "; ")
			}
			units = append(units, frag)
		}
	}
	if c := Clarification(ambiguous); c != "" {
		if len(units) > 0 {
			seps = append(seps, ". ")
		}
		units = append(units, c)
	}
	return bound(units, seps, maxLen)
}

// Fragment renders one outcome. Successes read "Stake ABC123 to SportyBet: DEF456"
func Fragment(o assemble.Outcome) string {
	r := o.Request
	base := r.Source.Name + " " + r.Code + " to " + r.Target.Name
	if o.OK() {
		return base + ": " + o.NewCode
	}
	return base + " failed (" + o.Reason.String() + ")"
}

// Clarification builds the single sentence asking for missing platforms, or
// "" when nothing is ambiguous
func Clarification(ambiguous []assemble.Request) string {
	var noSource, noTarget, neither []string
	for _, r := range ambiguous {
		switch {
		case r.MissingSource() && r.Target.IsZero():
			neither = appendUnique(neither, r.Code)
		case r.MissingSource():
			noSource = appendUnique(noSource, r.Code)
		default:
			noTarget = appendUnique(noTarget, r.Code)
		}
	}
	var parts []string
	if len(noSource) > 0 {
		parts = append(parts, "which platform "+joinAnd(noSource)+verb(noSource)+" from")
	}
	if len(noTarget) > 0 {
		parts = append(parts, "which platform to convert "+joinAnd(noTarget)+" to")
	}
	if len(neither) > 0 {
		parts = append(parts, "the source and target platforms for "+joinAnd(neither))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Please tell me " + joinAnd(parts) + "."
}

func verb(codes []string) string {
	if len(codes) == 1 {
		return " is"
	}
	return " are"
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// joinAnd renders "a", "a and b", "a, b and c"
func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// bound joins units with seps (len(seps) == len(units)-1) and, when the result
// exceeds maxLen runes, keeps the longest prefix of whole units that still fits
// with a trailing ellipsis. A first unit that cannot fit on its own is cut at
// the last space, so words and codes are never split
func bound(units, seps []string, maxLen int) string {
	full := join(units, seps, len(units))
	if maxLen <= 0 || runes(full) <= maxLen {
		return full
	}
	tail := " " + Ellipsis
	for k := len(units) - 1; k >= 1; k-- {
		if s := join(units, seps, k) + tail; runes(s) <= maxLen {
			return s
		}
	}
	return strings.TrimLeft(cutAtSpace(units[0], maxLen-runes(tail))+tail, " ")
}

func join(units, seps []string, k int) string {
	var b strings.Builder
	for i := 0; i < k; i++ {
		if i > 0 {
			b.WriteString(seps[i-1])
		}
		b.WriteString(units[i])
	}
	return b.String()
}

// cutAtSpace returns the longest prefix of s within limit runes that ends
// before a space
func cutAtSpace(s string, limit int) string {
	if runes(s) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}
	cut, n := 0, 0
	for i, r := range s {
		if r == ' ' {
			cut = i
		}
		if n == limit {
			break
		}
		n++
	}
	return strings.TrimRight(s[:cut], " ;:.,")
}

func runes(s string) int { return utf8.RuneCountInString(s) }
