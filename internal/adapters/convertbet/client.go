// Package convertbet is a client for the convertbetcodes.com conversion API
package convertbet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	baseURLDefault = "https://convertbetcodes.com/api"
	defaultTimeout = 30 * time.Second
	defaultUA      = "flexcode-bot"
	defaultRPS     = 2.0
	defaultBurst   = 4
)

// DefaultSupported lists the platform slugs the service accepts
var DefaultSupported = []string{
	"stake", "sportybet", "bet9ja", "1xbet", "betway",
	"nairabet", "merrybet", "betking", "betnaija", "supabet",
}

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration

	// client side throttle; the service rate limits aggressively
	RatePerSec float64
	Burst      int

	// Supported overrides DefaultSupported when non-empty
	Supported []string
}

// Client performs single conversion calls. Retries belong to the caller so a
// per-message budget can bound them
type Client struct {
	http      *http.Client
	opts      Options
	lim       *rate.Limiter
	supported map[string]struct{}
	log       logger.Logger
	now       func() time.Time
}

// NewClient creates a Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = defaultRPS
	}
	if o.Burst <= 0 {
		o.Burst = defaultBurst
	}
	if len(o.Supported) == 0 {
		o.Supported = DefaultSupported
	}
	sup := make(map[string]struct{}, len(o.Supported))
	for _, s := range o.Supported {
		sup[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return &Client{
		http: &http.Client{
			Timeout:   o.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		opts:      o,
		lim:       rate.NewLimiter(rate.Limit(o.RatePerSec), o.Burst),
		supported: sup,
		log:       *logger.Named("convertbet"),
		now:       time.Now,
	}
}

type convertRequest struct {
	Code         string `json:"code"`
	FromPlatform string `json:"from_platform"`
	ToPlatform   string `json:"to_platform"`
}

type convertResponse struct {
	Success       bool   `json:"success"`
	ConvertedCode string `json:"converted_code"`
	Message       string `json:"message"`
	Error         string `json:"error"`
}

// Supports reports whether slug is accepted by the service
func (c *Client) Supports(slug string) bool {
	_, ok := c.supported[strings.ToLower(slug)]
	return ok
}

// Convert asks the service to translate code from one platform slug to another.
// Errors carry perr codes: InvalidCode, UnsupportedPair, Unavailable,
// TooManyRequests or Unauthorized
func (c *Client) Convert(ctx context.Context, code, from, to string) (string, error) {
	if !c.Supports(from) || !c.Supports(to) {
		return "", perr.UnsupportedPairf("unsupported platform conversion: %s to %s", from, to)
	}
	if err := c.lim.Wait(ctx); err != nil {
		return "", transportErr(ctx, err)
	}

	body, err := json.Marshal(convertRequest{Code: code, FromPlatform: from, ToPlatform: to})
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeJSON, "convertbet encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/convert", bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "convertbet new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		return "", transportErr(ctx, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("convertbet close body failed")
		}
	}()

	c.log.Debug().
		Str("code", code).
		Str("from", from).
		Str("to", to).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("convertbet http response")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "convertbet read body")
	}
	var out convertResponse
	decodeErr := json.Unmarshal(raw, &out)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", perr.TooManyRequestsf("convertbet rate limited")
	case resp.StatusCode >= 500:
		return "", perr.Unavailablef("convertbet server error %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized:
		return "", perr.Unauthorizedf("convertbet rejected api key")
	case resp.StatusCode == http.StatusForbidden:
		return "", perr.Forbiddenf("convertbet forbidden")
	}

	if decodeErr != nil {
		if resp.StatusCode >= 400 {
			return "", perr.Newf(perr.ErrorCodeUnknown, "convertbet status %d body %s", resp.StatusCode, tail(raw))
		}
		return "", perr.Wrapf(decodeErr, perr.ErrorCodeJSON, "convertbet decode response")
	}
	if out.Success && resp.StatusCode < 300 {
		if strings.TrimSpace(out.ConvertedCode) == "" {
			return "", perr.Newf(perr.ErrorCodeUnknown, "convertbet success without converted_code")
		}
		return strings.TrimSpace(out.ConvertedCode), nil
	}
	return "", classify(resp.StatusCode, firstNonEmpty(out.Error, out.Message))
}

// classify maps a refusal message onto the conversion error taxonomy
func classify(status int, msg string) error {
	if msg == "" {
		msg = "conversion failed"
	}
	low := strings.ToLower(msg)
	switch {
	case strings.Contains(low, "unsupported") || strings.Contains(low, "not supported") || strings.Contains(low, "pair"):
		return perr.UnsupportedPairf("%s", msg)
	case strings.Contains(low, "invalid") || strings.Contains(low, "not found") || strings.Contains(low, "expired") ||
		status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		return perr.InvalidCodef("%s", msg)
	case strings.Contains(low, "rate limit") || strings.Contains(low, "too many"):
		return perr.TooManyRequestsf("%s", msg)
	case strings.Contains(low, "timeout") || strings.Contains(low, "unavailable"):
		return perr.Unavailablef("%s", msg)
	}
	return perr.Newf(perr.ErrorCodeUnknown, "%s", msg)
}

// transportErr keeps caller cancellation distinct from per-call deadlines so
// only the latter is retried
func transportErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return perr.Wrap(context.Canceled, perr.ErrorCodeUnknown, "convertbet call cancelled")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return perr.Wrap(context.DeadlineExceeded, perr.ErrorCodeUnavailable, "convertbet call timed out")
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "convertbet call timed out")
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, "convertbet do failed")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func tail(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
