package extract

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"flexcode/internal/core/platform"
)

func rules() *Rules { return NewRules(platform.Default()) }

type want struct {
	kind   Kind
	text   string
	id     platform.ID
	cue    Cue
	clause int
}

func check(t *testing.T, text string, got []Span, exp []want) {
	t.Helper()
	if len(got) != len(exp) {
		t.Fatalf("%q: got %d spans, want %d\n%s", text, len(got), len(exp), Explain(got))
	}
	for i, w := range exp {
		s := got[i]
		if s.Kind != w.kind || s.Text != w.text || s.Platform.ID != w.id || s.Cue != w.cue || s.Clause != w.clause {
			t.Fatalf("%q span %d = %+v, want %+v\n%s", text, i, s, w, Explain(got))
		}
		if text[s.Start:s.End] != s.Text {
			t.Fatalf("%q span %d offsets [%d,%d) do not cover %q", text, i, s.Start, s.End, s.Text)
		}
		if i > 0 && got[i-1].Start >= s.Start {
			t.Fatalf("%q spans out of order at %d", text, i)
		}
	}
}

func TestRules_ScenarioA(t *testing.T) {
	text := "Convert Stake code ABC123 to SportyBet and Bet9ja code XYZ789 to 1xBet"
	check(t, text, rules().Extract(context.Background(), text), []want{
		{KindPlatform, "Stake", platform.Stake, CueNone, 0},
		{KindCode, "ABC123", "", CueNone, 0},
		{KindPlatform, "SportyBet", platform.SportyBet, CueTo, 0},
		{KindPlatform, "Bet9ja", platform.Bet9ja, CueNone, 1},
		{KindCode, "XYZ789", "", CueNone, 1},
		{KindPlatform, "1xBet", platform.OneXBet, CueTo, 1},
	})
}

func TestRules_Table(t *testing.T) {
	cases := []struct {
		name string
		text string
		exp  []want
	}{
		{
			name: "missing source",
			text: "Convert ABC123 to SportyBet",
			exp: []want{
				{KindCode, "ABC123", "", CueNone, 0},
				{KindPlatform, "SportyBet", platform.SportyBet, CueTo, 0},
			},
		},
		{
			name: "multi-word aliases, longest match",
			text: "convert ABC123 from sporty bet to bet 9ja",
			exp: []want{
				{KindCode, "ABC123", "", CueNone, 0},
				{KindPlatform, "sporty bet", platform.SportyBet, CueFrom, 0},
				{KindPlatform, "bet 9ja", platform.Bet9ja, CueTo, 0},
			},
		},
		{
			name: "codes share a trailing pair",
			text: "codes ABC123 and XYZ789 from Stake to SportyBet",
			exp: []want{
				{KindCode, "ABC123", "", CueNone, 0},
				{KindCode, "XYZ789", "", CueNone, 0},
				{KindPlatform, "Stake", platform.Stake, CueFrom, 0},
				{KindPlatform, "SportyBet", platform.SportyBet, CueTo, 0},
			},
		},
		{
			name: "pair then list of codes",
			text: "from Stake to SportyBet: ABC123, XYZ789",
			exp: []want{
				{KindPlatform, "Stake", platform.Stake, CueFrom, 0},
				{KindPlatform, "SportyBet", platform.SportyBet, CueTo, 0},
				{KindCode, "ABC123", "", CueNone, 0},
				{KindCode, "XYZ789", "", CueNone, 0},
			},
		},
		{
			name: "comma list of codes shares the trailing pair",
			text: "AAA111, BBB222 and CCC333 from Stake to Betway",
			exp: []want{
				{KindCode, "AAA111", "", CueNone, 0},
				{KindCode, "BBB222", "", CueNone, 0},
				{KindCode, "CCC333", "", CueNone, 0},
				{KindPlatform, "Stake", platform.Stake, CueFrom, 0},
				{KindPlatform, "Betway", platform.Betway, CueTo, 0},
			},
		},
		{
			name: "listed codes fold back before a new instruction",
			text: "from Stake to SportyBet: ABC123, XYZ789. QWE456 on Betway to 1xBet",
			exp: []want{
				{KindPlatform, "Stake", platform.Stake, CueFrom, 0},
				{KindPlatform, "SportyBet", platform.SportyBet, CueTo, 0},
				{KindCode, "ABC123", "", CueNone, 0},
				{KindCode, "XYZ789", "", CueNone, 0},
				{KindCode, "QWE456", "", CueNone, 1},
				{KindPlatform, "Betway", platform.Betway, CueOn, 1},
				{KindPlatform, "1xBet", platform.OneXBet, CueTo, 1},
			},
		},
		{
			name: "trailing platform-only clause stays apart",
			text: "Convert ABC123 from Stake and Betway to SportyBet",
			exp: []want{
				{KindCode, "ABC123", "", CueNone, 0},
				{KindPlatform, "Stake", platform.Stake, CueFrom, 0},
				{KindPlatform, "Betway", platform.Betway, CueNone, 1},
				{KindPlatform, "SportyBet", platform.SportyBet, CueTo, 1},
			},
		},
		{
			name: "sentence break splits clauses",
			text: "Stake ABC123 to Betway. XYZ789 to Stake",
			exp: []want{
				{KindPlatform, "Stake", platform.Stake, CueNone, 0},
				{KindCode, "ABC123", "", CueNone, 0},
				{KindPlatform, "Betway", platform.Betway, CueTo, 0},
				{KindCode, "XYZ789", "", CueNone, 1},
				{KindPlatform, "Stake", platform.Stake, CueTo, 1},
			},
		},
		{
			name: "dotted alias and filler before cue target",
			text: "ABC123 from stake.com to my Betway",
			exp: []want{
				{KindCode, "ABC123", "", CueNone, 0},
				{KindPlatform, "stake.com", platform.Stake, CueFrom, 0},
				{KindPlatform, "Betway", platform.Betway, CueTo, 0},
			},
		},
		{
			name: "typo resolves, on marks the source",
			text: "INVALID on Sportbet into BetKing",
			exp: []want{
				{KindCode, "INVALID", "", CueNone, 0},
				{KindPlatform, "Sportbet", platform.SportyBet, CueOn, 0},
				{KindPlatform, "BetKing", platform.BetKing, CueTo, 0},
			},
		},
		{
			name: "prose and command words are not codes",
			text: "PLEASE CONVERT my betting code",
			exp:  nil,
		},
		{name: "empty", text: "", exp: nil},
		{name: "punctuation only", text: "?!,;...", exp: nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			check(t, tc.text, rules().Extract(context.Background(), tc.text), tc.exp)
		})
	}
}

func TestRules_Deterministic(t *testing.T) {
	text := "Convert Stake code ABC123 to SportyBet and Bet9ja code XYZ789 to 1xBet, also QWE456"
	a := rules().Extract(context.Background(), text)
	b := rules().Extract(context.Background(), text)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("extract not deterministic:\n%s\n%s", Explain(a), Explain(b))
	}
}

func TestCodeLike(t *testing.T) {
	cases := map[string]bool{
		"ABC123":           true,
		"abc123":           true,
		"INVALID":          true,
		"12345678":         true,
		"CONVERT":          false,
		"code":             false,
		"Convert":          false,
		"ABC":              false,
		"ABCDEFGHIJKLMNOP": false,
		"ABÇ123":           false,
	}
	for in, want := range cases {
		if got := CodeLike(in); got != want {
			t.Fatalf("CodeLike(%q) = %v, want %v", in, got, want)
		}
	}
}

type fakeOracle struct {
	spans []RawSpan
	err   error
	calls int
}

func (f *fakeOracle) Spans(context.Context, string) ([]RawSpan, error) {
	f.calls++
	return f.spans, f.err
}

func TestOracleExtractor_AgreesWithRules(t *testing.T) {
	text := "Convert ABC123 from Stake to SportyBet"
	i := strings.Index(text, "SportyBet")
	o := &fakeOracle{spans: []RawSpan{
		{Kind: KindPlatform, Text: "portyBe", Start: i + 1, End: i + 8}, // widened to the token
		{Kind: KindCode, Text: "ABC123", Start: 8, End: 14},
		{Kind: KindPlatform, Text: "Convert", Start: 0, End: 7}, // does not resolve, dropped
	}}
	x := NewOracleExtractor(o, platform.Default())
	got := x.Extract(context.Background(), text)
	exp := rules().Extract(context.Background(), text)
	if !reflect.DeepEqual(got, exp) {
		t.Fatalf("oracle output differs:\n%s\nwant\n%s", Explain(got), Explain(exp))
	}
	if o.calls != 1 {
		t.Fatalf("oracle calls = %d", o.calls)
	}
}

func TestOracleExtractor_LongerMentionWins(t *testing.T) {
	text := "ABC123 from Stake to Sporty  -  Bet"
	i := strings.Index(text, "Sporty")
	o := &fakeOracle{spans: []RawSpan{{Kind: KindPlatform, Start: i, End: len(text)}}}
	got := NewOracleExtractor(o, platform.Default()).Extract(context.Background(), text)
	check(t, text, got, []want{
		{KindCode, "ABC123", "", CueNone, 0},
		{KindPlatform, "Stake", platform.Stake, CueFrom, 0},
		{KindPlatform, "Sporty  -  Bet", platform.SportyBet, CueTo, 0},
	})
}

func TestOracleExtractor_FallsBackOnError(t *testing.T) {
	text := "Convert Stake code ABC123 to SportyBet"
	o := &fakeOracle{err: errors.New("model loading")}
	got := NewOracleExtractor(o, platform.Default()).Extract(context.Background(), text)
	exp := rules().Extract(context.Background(), text)
	if !reflect.DeepEqual(got, exp) {
		t.Fatalf("fallback differs:\n%s\nwant\n%s", Explain(got), Explain(exp))
	}
}

func TestAnnotate_RejectsBadOffsets(t *testing.T) {
	text := "ABC123 to Stake"
	got := Annotate(text, platform.Default(), []RawSpan{
		{Kind: KindCode, Start: -1, End: 3},
		{Kind: KindCode, Start: 5, End: 99},
		{Kind: KindPlatform, Start: 7, End: 7},
		{Kind: KindPlatform, Start: 6, End: 9}, // " to" trims to "to", not a platform
	})
	if len(got) != 0 {
		t.Fatalf("expected no spans, got\n%s", Explain(got))
	}
}
