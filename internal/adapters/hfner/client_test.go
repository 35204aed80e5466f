package hfner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"flexcode/internal/core/extract"
	"flexcode/internal/core/platform"
	perr "flexcode/internal/platform/errors"
)

func ip(i int) *int { return &i }

func TestSpans_ORGEntitiesBecomePlatforms(t *testing.T) {
	text := "Convert Stake code ABC123 to SportyBet"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hf" {
			t.Errorf("missing bearer")
		}
		var in inferRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Inputs != text {
			t.Errorf("inputs = %q", in.Inputs)
		}
		_ = json.NewEncoder(w).Encode([]entity{
			{EntityGroup: "ORG", Word: "Stake", Start: ip(8), End: ip(13)},
			{EntityGroup: "MISC", Word: "ABC", Start: ip(19), End: ip(22)},
			{EntityGroup: "ORG", Word: "Sport", Start: ip(29), End: ip(38)},
			{EntityGroup: "ORG", Word: "nowhere"},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{ModelURL: srv.URL, APIKey: "hf"})
	got, err := c.Spans(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 spans, got %+v", got)
	}
	if got[0].Text != "Stake" || got[0].Start != 8 || got[0].Kind != extract.KindPlatform {
		t.Fatalf("span 0 = %+v", got[0])
	}
	if got[1].Text != "SportyBet" || got[1].End != len(text) {
		t.Fatalf("span 1 = %+v", got[1])
	}
}

func TestSpans_RuneOffsetsMapToBytes(t *testing.T) {
	text := "café → Stake"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// rune offsets: "Stake" starts at rune 7
		_ = json.NewEncoder(w).Encode([]entity{{Entity: "B-ORG", Word: "Stake", Start: ip(7), End: ip(12)}})
	}))
	defer srv.Close()

	got, err := NewClient(Options{ModelURL: srv.URL}).Spans(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || text[got[0].Start:got[0].End] != "Stake" {
		t.Fatalf("got %+v", got)
	}
}

func TestSpans_ModelLoadingIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(Options{ModelURL: srv.URL}).Spans(context.Background(), "Stake ABC123")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
}

func TestOracleExtractor_WithClient(t *testing.T) {
	text := "Convert Stake code ABC123 to SportyBet"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]entity{
			{EntityGroup: "ORG", Word: "Stake", Start: ip(8), End: ip(13)},
			{EntityGroup: "ORG", Word: "SportyBet", Start: ip(29), End: ip(38)},
		})
	}))
	defer srv.Close()

	reg := platform.Default()
	x := extract.NewOracleExtractor(NewClient(Options{ModelURL: srv.URL}), reg)
	got := x.Extract(context.Background(), text)
	want := extract.NewRules(reg).Extract(context.Background(), text)
	if len(got) != len(want) {
		t.Fatalf("oracle %+v\nrules  %+v", got, want)
	}
	for i := range got {
		if got[i].Kind != want[i].Kind || got[i].Start != want[i].Start || got[i].Platform.ID != want[i].Platform.ID {
			t.Fatalf("span %d: oracle %+v rules %+v", i, got[i], want[i])
		}
	}
}
