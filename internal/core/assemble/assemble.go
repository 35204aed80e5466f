// Package assemble pairs extracted code spans with source and target platforms
package assemble

import (
	"sort"

	"flexcode/internal/core/extract"
	"flexcode/internal/core/platform"
)

// Status is derived from which platforms a request carries
type Status uint8

const (
	// StatusPending is the zero value before platforms are considered
	StatusPending Status = iota
	// StatusComplete means both platforms are present and distinct
	StatusComplete
	// StatusAmbiguous means a platform is missing or both sides are the same
	StatusAmbiguous
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "COMPLETE"
	case StatusAmbiguous:
		return "AMBIGUOUS"
	default:
		return "PENDING"
	}
}

// MarshalText renders the status name
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Request is one code to convert. Index is its position in assembly order,
// which is the order codes appear in the message
type Request struct {
	Index  int
	Code   string
	Source platform.Platform
	Target platform.Platform
	Span   extract.Span

	// Unused lists the clause's other platforms when it named more than two
	// and the nearest pair was picked; callers flag these requests
	Unused []platform.Platform
}

// Crowded reports a request paired by proximity out of more than two platforms
func (r Request) Crowded() bool { return len(r.Unused) > 0 }

// Status derives COMPLETE or AMBIGUOUS from the platforms present
func (r Request) Status() Status {
	if r.MissingSource() || r.MissingTarget() {
		return StatusAmbiguous
	}
	return StatusComplete
}

// MissingSource reports whether the originating platform is unknown
func (r Request) MissingSource() bool { return r.Source.IsZero() }

// MissingTarget reports whether the destination platform is unknown, or
// names the same platform as the source
func (r Request) MissingTarget() bool {
	return r.Target.IsZero() || (!r.Source.IsZero() && r.Source.ID == r.Target.ID)
}

// Assemble turns spans into one request per code span, in text order. Pure and
// deterministic: it never looks past its input
func Assemble(spans []extract.Span) []Request {
	var out []Request
	for _, clause := range byClause(spans) {
		var codes, plats []extract.Span
		for _, s := range clause {
			switch s.Kind {
			case extract.KindCode:
				codes = append(codes, s)
			case extract.KindPlatform:
				plats = append(plats, s)
			}
		}
		for _, c := range codes {
			src, dst, unused := pair(c, plats)
			out = append(out, Request{
				Index:  len(out),
				Code:   c.Text,
				Source: src,
				Target: dst,
				Span:   c,
				Unused: unused,
			})
		}
	}
	return out
}

// Split separates complete requests from ambiguous ones, keeping order
func Split(reqs []Request) (complete, ambiguous []Request) {
	for _, r := range reqs {
		if r.Status() == StatusComplete {
			complete = append(complete, r)
		} else {
			ambiguous = append(ambiguous, r)
		}
	}
	return complete, ambiguous
}

func byClause(spans []extract.Span) [][]extract.Span {
	sorted := make([]extract.Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Clause != sorted[j].Clause {
			return sorted[i].Clause < sorted[j].Clause
		}
		return sorted[i].Start < sorted[j].Start
	})
	var out [][]extract.Span
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Clause == sorted[i].Clause {
			j++
		}
		out = append(out, sorted[i:j])
		i = j
	}
	return out
}

// pair picks source and target for code c from the clause's platform spans.
// With more than two it also returns the platforms left out
func pair(c extract.Span, plats []extract.Span) (src, dst platform.Platform, unused []platform.Platform) {
	switch len(plats) {
	case 0:
		return src, dst, nil
	case 1:
		p := plats[0]
		if sourceSide(p, c) {
			return p.Platform, dst, nil
		}
		return src, p.Platform, nil
	case 2:
		src, dst = orient(plats[0], plats[1])
		return src, dst, nil
	default:
		a, b := nearestTwo(c, plats)
		for _, p := range plats {
			if p.Start != a.Start && p.Start != b.Start {
				unused = append(unused, p.Platform)
			}
		}
		src, dst = orient(a, b)
		return src, dst, unused
	}
}

// sourceSide classifies a lone platform: a from/on cue or preceding the code
// makes it the source, a to cue or following the code makes it the target
func sourceSide(p, c extract.Span) bool {
	switch {
	case p.Cue.Source():
		return true
	case p.Cue == extract.CueTo:
		return false
	default:
		return p.Start < c.Start
	}
}

// orient assigns a and b (a earlier in text) to source and target. Cues win;
// otherwise text order decides, which puts a platform before the code on the
// source side and, when both sit on one side of it, makes the earlier one the
// source
func orient(a, b extract.Span) (platform.Platform, platform.Platform) {
	switch {
	case a.Cue.Source() && !b.Cue.Source():
		return a.Platform, b.Platform
	case b.Cue.Source() && !a.Cue.Source():
		return b.Platform, a.Platform
	case a.Cue == extract.CueTo && b.Cue != extract.CueTo:
		return b.Platform, a.Platform
	case b.Cue == extract.CueTo && a.Cue != extract.CueTo:
		return a.Platform, b.Platform
	}
	return a.Platform, b.Platform
}

// nearestTwo returns the two platform spans closest to c by byte gap, earlier
// first in text order. Equal gaps prefer the earlier span
func nearestTwo(c extract.Span, plats []extract.Span) (extract.Span, extract.Span) {
	ranked := make([]extract.Span, len(plats))
	copy(ranked, plats)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := gap(c, ranked[i]), gap(c, ranked[j])
		if di != dj {
			return di < dj
		}
		return ranked[i].Start < ranked[j].Start
	})
	a, b := ranked[0], ranked[1]
	if b.Start < a.Start {
		a, b = b, a
	}
	return a, b
}

// gap is the byte distance between the nearest edges of two spans
func gap(x, y extract.Span) int {
	switch {
	case y.End <= x.Start:
		return x.Start - y.End
	case x.End <= y.Start:
		return y.Start - x.End
	default:
		return 0
	}
}
