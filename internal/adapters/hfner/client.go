// Package hfner queries a HuggingFace token-classification model and exposes
// its ORG entities as platform spans
package hfner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"flexcode/internal/core/extract"
	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	modelURLDefault = "https://api-inference.huggingface.co/models/dslim/bert-base-NER"
	defaultTimeout  = 10 * time.Second
)

// Options configures the Client
type Options struct {
	ModelURL string
	APIKey   string
	Timeout  time.Duration
}

// Client implements extract.Oracle over the inference API
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// NewClient creates a Client with sane defaults
func NewClient(o Options) *Client {
	if o.ModelURL == "" {
		o.ModelURL = modelURLDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		opts: o,
		log:  *logger.Named("hfner"),
	}
}

type inferRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// entity is one aggregated prediction. start/end are character offsets
type entity struct {
	EntityGroup string  `json:"entity_group"`
	Entity      string  `json:"entity"`
	Score       float64 `json:"score"`
	Word        string  `json:"word"`
	Start       *int    `json:"start"`
	End         *int    `json:"end"`
}

// Spans returns PLATFORM candidates for every ORG entity with usable offsets.
// The model knows nothing about booking codes, so code spans come from the
// rule scanner the oracle extractor runs alongside it
func (c *Client) Spans(ctx context.Context, text string) ([]extract.RawSpan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	body, err := json.Marshal(inferRequest{
		Inputs:     text,
		Parameters: map[string]any{"aggregation_strategy": "simple"},
		Options:    map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "hfner encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.ModelURL, bytes.NewReader(body))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "hfner new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "hfner do failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("hfner close body failed")
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "hfner read body")
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, perr.TooManyRequestsf("hfner rate limited")
	case resp.StatusCode >= 500:
		// 503 while the model loads
		return nil, perr.Unavailablef("hfner status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, perr.Newf(perr.ErrorCodeUnknown, "hfner status %d body %.256s", resp.StatusCode, raw)
	}

	var ents []entity
	if err := json.Unmarshal(raw, &ents); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "hfner decode response")
	}
	out := toSpans(text, ents)
	c.log.Debug().Int("entities", len(ents)).Int("spans", len(out)).Msg("hfner spans")
	return out, nil
}

func toSpans(text string, ents []entity) []extract.RawSpan {
	offs := runeOffsets(text)
	var out []extract.RawSpan
	for _, e := range ents {
		if !isOrg(e) || e.Start == nil || e.End == nil {
			continue
		}
		s, en := *e.Start, *e.End
		if s < 0 || en <= s || en >= len(offs) {
			continue
		}
		bs, be := offs[s], offs[en]
		out = append(out, extract.RawSpan{
			Kind:  extract.KindPlatform,
			Text:  strings.TrimSpace(strings.ReplaceAll(text[bs:be], "##", "")),
			Start: bs,
			End:   be,
		})
	}
	return out
}

func isOrg(e entity) bool {
	switch {
	case e.EntityGroup == "ORG":
		return true
	case e.Entity == "B-ORG" || e.Entity == "I-ORG":
		return true
	}
	return false
}

// runeOffsets maps rune index -> byte offset, with one trailing entry for len(text)
func runeOffsets(text string) []int {
	offs := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offs = append(offs, i)
	}
	return append(offs, len(text))
}
