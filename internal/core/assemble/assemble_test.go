package assemble

import (
	"context"
	"reflect"
	"testing"

	"flexcode/internal/core/extract"
	"flexcode/internal/core/platform"
)

func run(text string) []Request {
	x := extract.NewRules(platform.Default())
	return Assemble(x.Extract(context.Background(), text))
}

type row struct {
	code   string
	src    platform.ID
	dst    platform.ID
	status Status
}

func expect(t *testing.T, text string, got []Request, want []row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%q: %d requests, want %d: %+v", text, len(got), len(want), got)
	}
	for i, w := range want {
		r := got[i]
		if r.Index != i || r.Code != w.code || r.Source.ID != w.src || r.Target.ID != w.dst || r.Status() != w.status {
			t.Fatalf("%q request %d = {%d %s %s->%s %s}, want %+v",
				text, i, r.Index, r.Code, r.Source.ID, r.Target.ID, r.Status(), w)
		}
	}
}

func TestAssemble_Scenarios(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []row
	}{
		{
			name: "two clauses, two complete requests",
			text: "Convert Stake code ABC123 to SportyBet and Bet9ja code XYZ789 to 1xBet",
			want: []row{
				{"ABC123", platform.Stake, platform.SportyBet, StatusComplete},
				{"XYZ789", platform.Bet9ja, platform.OneXBet, StatusComplete},
			},
		},
		{
			name: "missing source",
			text: "Convert ABC123 to SportyBet",
			want: []row{{"ABC123", "", platform.SportyBet, StatusAmbiguous}},
		},
		{
			name: "lone platform before code is the source",
			text: "Stake code ABC123 please",
			want: []row{{"ABC123", platform.Stake, "", StatusAmbiguous}},
		},
		{
			name: "lone platform after code without cue is the target",
			text: "ABC123 Betway",
			want: []row{{"ABC123", "", platform.Betway, StatusAmbiguous}},
		},
		{
			name: "no platforms",
			text: "convert ABC123",
			want: []row{{"ABC123", "", "", StatusAmbiguous}},
		},
		{
			name: "codes share one pair",
			text: "codes ABC123 and XYZ789 from Stake to SportyBet",
			want: []row{
				{"ABC123", platform.Stake, platform.SportyBet, StatusComplete},
				{"XYZ789", platform.Stake, platform.SportyBet, StatusComplete},
			},
		},
		{
			name: "cues beat text order",
			text: "ABC123 to Betway from Stake",
			want: []row{{"ABC123", platform.Stake, platform.Betway, StatusComplete}},
		},
		{
			name: "same platform twice is ambiguous",
			text: "ABC123 from Stake to Stake",
			want: []row{{"ABC123", platform.Stake, platform.Stake, StatusAmbiguous}},
		},
		{
			name: "split pair across clauses asks rather than guesses",
			text: "Convert ABC123 from Stake and Betway to SportyBet",
			want: []row{{"ABC123", platform.Stake, "", StatusAmbiguous}},
		},
		{
			name: "invalid-looking code still pairs",
			text: "Convert INVALID from Stake to SportyBet",
			want: []row{{"INVALID", platform.Stake, platform.SportyBet, StatusComplete}},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			expect(t, tc.text, run(tc.text), tc.want)
		})
	}
}

func plat(t *testing.T, id platform.ID, start, end int, cue extract.Cue) extract.Span {
	t.Helper()
	p, ok := platform.Default().Get(id)
	if !ok {
		t.Fatalf("unknown platform %s", id)
	}
	return extract.Span{Kind: extract.KindPlatform, Text: p.Name, Start: start, End: end, Platform: p, Cue: cue}
}

func code(text string, start int) extract.Span {
	return extract.Span{Kind: extract.KindCode, Text: text, Start: start, End: start + len(text)}
}

func TestAssemble_NearestTwoTieBreak(t *testing.T) {
	t.Run("equal distance, earlier is source", func(t *testing.T) {
		spans := []extract.Span{
			plat(t, platform.Betway, 5, 10, extract.CueNone),  // gap 10
			code("ABC123", 20),                                // [20,26)
			plat(t, platform.Stake, 36, 41, extract.CueNone),  // gap 10
			plat(t, platform.BetKing, 60, 65, extract.CueNone), // gap 34
		}
		got := Assemble(spans)
		expect(t, "tie", got, []row{{"ABC123", platform.Betway, platform.Stake, StatusComplete}})
		if u := got[0].Unused; !got[0].Crowded() || len(u) != 1 || u[0].ID != platform.BetKing {
			t.Fatalf("unused = %+v", u)
		}
	})

	t.Run("tie for second place keeps the earlier span", func(t *testing.T) {
		spans := []extract.Span{
			plat(t, platform.Betway, 0, 5, extract.CueNone),   // gap 15
			plat(t, platform.Stake, 14, 19, extract.CueNone),  // gap 1
			code("ABC123", 20),                                // [20,26)
			plat(t, platform.BetKing, 41, 46, extract.CueNone), // gap 15
		}
		got := Assemble(spans)
		expect(t, "second", got, []row{{"ABC123", platform.Betway, platform.Stake, StatusComplete}})
	})

	t.Run("cues still orient the chosen pair", func(t *testing.T) {
		spans := []extract.Span{
			plat(t, platform.Betway, 0, 5, extract.CueTo),
			plat(t, platform.Stake, 8, 13, extract.CueNone),
			code("ABC123", 14),
			plat(t, platform.BetKing, 90, 95, extract.CueNone),
		}
		got := Assemble(spans)
		expect(t, "cue", got, []row{{"ABC123", platform.Stake, platform.Betway, StatusComplete}})
	})
}

func TestAssemble_CrowdedClauseIsFlagged(t *testing.T) {
	x := extract.NewRules(platform.Default())

	got := Assemble(x.Extract(context.Background(), "from Stake and Betway to SportyBet ABC123"))
	expect(t, "crowded", got, []row{{"ABC123", platform.Betway, platform.SportyBet, StatusComplete}})
	if u := got[0].Unused; len(u) != 1 || u[0].ID != platform.Stake {
		t.Fatalf("unused = %+v", u)
	}

	plain := Assemble(x.Extract(context.Background(), "ABC123 from Stake to SportyBet"))
	if len(plain) != 1 || plain[0].Crowded() {
		t.Fatalf("two-platform clause flagged: %+v", plain)
	}
}

func TestAssemble_NeverDropsCodes(t *testing.T) {
	texts := []string{
		"Convert Stake code ABC123 to SportyBet and Bet9ja code XYZ789 to 1xBet",
		"ABC123, DEF456; GHI789 and JKL012 from Stake to Betway",
		"AAAA1111 BBBB2222 CCCC3333",
		"from Stake to SportyBet: ABC123, XYZ789. Then QWE456 on Betway to 1xBet",
	}
	x := extract.NewRules(platform.Default())
	for _, text := range texts {
		spans := x.Extract(context.Background(), text)
		codes := 0
		for _, s := range spans {
			if s.Kind == extract.KindCode {
				codes++
			}
		}
		reqs := Assemble(spans)
		if len(reqs) != codes {
			t.Fatalf("%q: %d code spans but %d requests", text, codes, len(reqs))
		}
		for i := 1; i < len(reqs); i++ {
			if reqs[i-1].Span.Start >= reqs[i].Span.Start {
				t.Fatalf("%q: requests out of text order at %d", text, i)
			}
		}
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	text := "Convert Stake code ABC123 to SportyBet and Bet9ja code XYZ789 to 1xBet"
	if a, b := run(text), run(text); !reflect.DeepEqual(a, b) {
		t.Fatalf("assemble not deterministic")
	}
}

func TestSplit_KeepsOrder(t *testing.T) {
	reqs := run("ABC123 from Stake to Betway, DEF456 to Betway, GHI789 from Bet9ja to 1xBet")
	complete, ambiguous := Split(reqs)
	if len(complete) != 2 || complete[0].Code != "ABC123" || complete[1].Code != "GHI789" {
		t.Fatalf("complete = %+v", complete)
	}
	if len(ambiguous) != 1 || ambiguous[0].Code != "DEF456" || !ambiguous[0].MissingSource() {
		t.Fatalf("ambiguous = %+v", ambiguous)
	}
}
