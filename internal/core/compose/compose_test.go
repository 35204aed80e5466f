package compose

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"flexcode/internal/core/assemble"
	"flexcode/internal/core/platform"
)

func p(t *testing.T, id platform.ID) platform.Platform {
	t.Helper()
	if id == "" {
		return platform.Platform{}
	}
	pl, ok := platform.Default().Get(id)
	if !ok {
		t.Fatalf("unknown platform %s", id)
	}
	return pl
}

func req(t *testing.T, idx int, code string, src, dst platform.ID) assemble.Request {
	t.Helper()
	return assemble.Request{Index: idx, Code: code, Source: p(t, src), Target: p(t, dst)}
}

func TestCompose_ScenarioA(t *testing.T) {
	outs := []assemble.Outcome{
		assemble.Converted(req(t, 0, "ABC123", platform.Stake, platform.SportyBet), "DEF456"),
		assemble.Converted(req(t, 1, "XYZ789", platform.Bet9ja, platform.OneXBet), "GHI789"),
	}
	got := Compose(outs, nil, 280)
	want := "Converted codes: Stake ABC123 to SportyBet: DEF456; Bet9ja XYZ789 to 1xBet: GHI789"
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestCompose_ScenarioB_Clarification(t *testing.T) {
	got := Compose(nil, []assemble.Request{req(t, 0, "ABC123", "", platform.SportyBet)}, 280)
	if got != "Please tell me which platform ABC123 is from." {
		t.Fatalf("got %q", got)
	}
}

func TestCompose_ScenarioC_Failure(t *testing.T) {
	o := assemble.Failed(req(t, 0, "INVALID", platform.Stake, platform.SportyBet), assemble.ReasonInvalidCode, errors.New("400"))
	got := Compose([]assemble.Outcome{o}, nil, 280)
	if got != "Could not convert: Stake INVALID to SportyBet failed (invalid code)" {
		t.Fatalf("got %q", got)
	}
}

func TestCompose_MixedInRequestOrder(t *testing.T) {
	outs := []assemble.Outcome{
		assemble.Failed(req(t, 2, "BAD999", platform.Bet9ja, platform.OneXBet), assemble.ReasonTransient, nil),
		assemble.Converted(req(t, 0, "ABC123", platform.Stake, platform.SportyBet), "DEF456"),
	}
	amb := []assemble.Request{
		req(t, 1, "XYZ789", "", platform.Betway),
		req(t, 3, "QQQ111", platform.Stake, ""),
		req(t, 4, "WWW222", "", ""),
		req(t, 5, "EEE333", platform.Stake, platform.Stake),
		req(t, 6, "RRR444", "", platform.BetKing),
	}
	got := Compose(outs, amb, 0)
	want := "Converted codes: Stake ABC123 to SportyBet: DEF456; " +
		"Bet9ja BAD999 to 1xBet failed (service unavailable, try again later). " +
		"Please tell me which platform XYZ789 and RRR444 are from, " +
		"which platform to convert QQQ111 and EEE333 to and " +
		"the source and target platforms for WWW222."
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
	// every code appears exactly once
	for _, c := range []string{"ABC123", "BAD999", "XYZ789", "QQQ111", "WWW222", "EEE333", "RRR444"} {
		if n := strings.Count(got, c); n != 1 {
			t.Fatalf("code %s rendered %d times", c, n)
		}
	}
}

func TestCompose_NothingFound(t *testing.T) {
	if got := Compose(nil, nil, 280); got != NotUnderstood {
		t.Fatalf("got %q", got)
	}
}

func TestCompose_TruncatesAtFragmentBoundary(t *testing.T) {
	outs := []assemble.Outcome{
		assemble.Converted(req(t, 0, "ABC123", platform.Stake, platform.SportyBet), "DEF456"),
		assemble.Converted(req(t, 1, "XYZ789", platform.Bet9ja, platform.OneXBet), "GHI789"),
	}
	amb := []assemble.Request{req(t, 2, "QWE456", "", platform.Betway)}
	full := Compose(outs, amb, 0)

	first := "Converted codes: Stake ABC123 to SportyBet: DEF456"
	max := utf8.RuneCountInString(first) + 5
	got := Compose(outs, amb, max)
	if got != first+" "+Ellipsis {
		t.Fatalf("got %q", got)
	}
	if utf8.RuneCountInString(got) > max {
		t.Fatalf("reply exceeds bound: %d > %d", utf8.RuneCountInString(got), max)
	}
	if utf8.RuneCountInString(full) <= max {
		t.Fatalf("test precondition: full reply should exceed bound")
	}
}

func TestCompose_TruncatesOversizedFirstFragmentAtSpace(t *testing.T) {
	o := assemble.Converted(req(t, 0, "ABC123", platform.Stake, platform.SportyBet), "DEF456")
	got := Compose([]assemble.Outcome{o}, nil, 30)
	if utf8.RuneCountInString(got) > 30 {
		t.Fatalf("too long: %q", got)
	}
	if !strings.HasSuffix(got, Ellipsis) {
		t.Fatalf("missing ellipsis: %q", got)
	}
	// "Converted codes: Stake ABC123 to..." must not cut inside a word or code
	body := strings.TrimSuffix(got, " "+Ellipsis)
	full := Compose([]assemble.Outcome{o}, nil, 0)
	if !strings.HasPrefix(full, body+" ") {
		t.Fatalf("cut mid-word: %q", got)
	}
}

func TestJoinAnd(t *testing.T) {
	cases := map[string][]string{
		"":           nil,
		"a":          {"a"},
		"a and b":    {"a", "b"},
		"a, b and c": {"a", "b", "c"},
	}
	for want, in := range cases {
		if got := joinAnd(in); got != want {
			t.Fatalf("joinAnd(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestCutAtSpace(t *testing.T) {
	if got := cutAtSpace("hello world again", 11); got != "hello world" {
		t.Fatalf("got %q", got)
	}
	if got := cutAtSpace("hello world", 7); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := cutAtSpace("unbroken", 3); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := cutAtSpace("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
}
