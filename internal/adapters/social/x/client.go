// Package x polls mentions and direct messages from the X API v2 and posts
// replies
package x

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"
	pdom "flexcode/internal/services/pipeline/domain"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	baseURLDefault = "https://api.twitter.com"
	defaultTimeout = 15 * time.Second

	// TweetLimit bounds a reply tweet including the @handle prefix
	TweetLimit = 280
	// DMLimit bounds a direct message
	DMLimit = 10000
)

// Options configures the Client
type Options struct {
	BaseURL     string
	BearerToken string
	UserID      string // the bot account
	Timeout     time.Duration
}

// Client implements the poller Source over X. Since ids are kept in memory;
// the dedup tracker covers restarts. A fetch only stages the newest id seen;
// the cursor moves on Commit
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger

	mu          sync.Mutex
	sinceID     string
	lastDMEvent string
	staged      map[pdom.Kind]string
}

// NewClient builds a Client whose transport attaches the bearer token
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.BearerToken, TokenType: "Bearer"})
	return &Client{
		http: &http.Client{
			Timeout:   o.Timeout,
			Transport: &oauth2.Transport{Source: src, Base: otelhttp.NewTransport(http.DefaultTransport)},
		},
		opts: o,
		log:  *logger.Named("x"),
	}
}

// Name implements the Source
func (c *Client) Name() string { return "x" }

// Limit leaves room for the "@handle " prefix on mentions
func (c *Client) Limit(m pdom.Message) int {
	if m.Kind == pdom.KindDirect {
		return DMLimit
	}
	return TweetLimit - utf8.RuneCountInString(addressee(m.AuthorHandle))
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tweet struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type dmEvent struct {
	ID               string    `json:"id"`
	EventType        string    `json:"event_type"`
	Text             string    `json:"text"`
	SenderID         string    `json:"sender_id"`
	DMConversationID string    `json:"dm_conversation_id"`
	CreatedAt        time.Time `json:"created_at"`
}

type includes struct {
	Users []user `json:"users"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// FetchMentions returns mentions newer than the last seen id, oldest first
func (c *Client) FetchMentions(ctx context.Context) ([]pdom.Message, error) {
	q := url.Values{}
	q.Set("max_results", "10")
	q.Set("expansions", "author_id")
	q.Set("user.fields", "username")
	q.Set("tweet.fields", "created_at,conversation_id")
	c.mu.Lock()
	if c.sinceID != "" {
		q.Set("since_id", c.sinceID)
	}
	c.mu.Unlock()

	var out struct {
		Data     []tweet  `json:"data"`
		Includes includes `json:"includes"`
		Meta     struct {
			NewestID string `json:"newest_id"`
		} `json:"meta"`
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/"+url.PathEscape(c.opts.UserID)+"/mentions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}

	names := usernames(out.Includes.Users)
	msgs := make([]pdom.Message, 0, len(out.Data))
	for i := len(out.Data) - 1; i >= 0; i-- {
		t := out.Data[i]
		if t.AuthorID == c.opts.UserID {
			continue
		}
		msgs = append(msgs, pdom.Message{
			Source:       "x",
			ID:           t.ID,
			Kind:         pdom.KindMention,
			AuthorHandle: names[t.AuthorID],
			AuthorID:     t.AuthorID,
			Conversation: t.ConversationID,
			ReplyToID:    t.ID,
			Text:         t.Text,
			ReceivedAt:   t.CreatedAt,
		})
	}

	newest := out.Meta.NewestID
	if newest == "" && len(out.Data) > 0 {
		newest = out.Data[0].ID
	}
	c.stage(pdom.KindMention, newest)
	return msgs, nil
}

// FetchDirect returns incoming direct messages newer than the last seen event
func (c *Client) FetchDirect(ctx context.Context) ([]pdom.Message, error) {
	q := url.Values{}
	q.Set("event_types", "MessageCreate")
	q.Set("max_results", "20")
	q.Set("dm_event.fields", "id,event_type,text,sender_id,dm_conversation_id,created_at")
	q.Set("expansions", "sender_id")
	q.Set("user.fields", "username")

	var out struct {
		Data     []dmEvent `json:"data"`
		Includes includes  `json:"includes"`
	}
	if err := c.do(ctx, http.MethodGet, "/2/dm_events?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	last := c.lastDMEvent
	c.mu.Unlock()

	names := usernames(out.Includes.Users)
	newest := last
	var msgs []pdom.Message
	for i := len(out.Data) - 1; i >= 0; i-- {
		e := out.Data[i]
		if newerID(e.ID, newest) {
			newest = e.ID
		}
		if e.EventType != "MessageCreate" || e.SenderID == c.opts.UserID || !newerID(e.ID, last) {
			continue
		}
		msgs = append(msgs, pdom.Message{
			Source:       "x",
			ID:           "dm:" + e.ID,
			Kind:         pdom.KindDirect,
			AuthorHandle: names[e.SenderID],
			AuthorID:     e.SenderID,
			Conversation: e.DMConversationID,
			ReplyToID:    e.ID,
			Text:         e.Text,
			ReceivedAt:   e.CreatedAt,
		})
	}

	c.stage(pdom.KindDirect, newest)
	return msgs, nil
}

func (c *Client) stage(kind pdom.Kind, newest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staged == nil {
		c.staged = make(map[pdom.Kind]string)
	}
	if newerID(newest, c.staged[kind]) {
		c.staged[kind] = newest
	}
}

// Commit moves the kind's cursor to the newest fetched id, or to just below
// the oldest failed message so the next fetch returns it again
func (c *Client) Commit(kind pdom.Kind, failed []pdom.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cursor := &c.sinceID
	if kind == pdom.KindDirect {
		cursor = &c.lastDMEvent
	}
	next := c.staged[kind]
	delete(c.staged, kind)
	for _, m := range failed {
		prev, ok := before(m.ReplyToID)
		if !ok {
			return
		}
		if newerID(next, prev) {
			next = prev
		}
	}
	if newerID(next, *cursor) {
		*cursor = next
	}
}

// Reply posts text as a threaded reply to a mention, or into the DM
// conversation for direct messages
func (c *Client) Reply(ctx context.Context, m pdom.Message, text string) error {
	if m.Kind == pdom.KindDirect {
		path := "/2/dm_conversations/" + url.PathEscape(m.Conversation) + "/messages"
		if m.Conversation == "" {
			path = "/2/dm_conversations/with/" + url.PathEscape(m.AuthorID) + "/messages"
		}
		return c.do(ctx, http.MethodPost, path, map[string]any{"text": text}, nil)
	}

	body := map[string]any{
		"text":  addressee(m.AuthorHandle) + text,
		"reply": map[string]string{"in_reply_to_tweet_id": m.ReplyToID},
	}
	return c.do(ctx, http.MethodPost, "/2/tweets", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "x: encode request")
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "x: build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "x: request failed")
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 300 {
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		msg := strings.TrimSpace(ae.Title + ": " + ae.Detail)
		if ae.Title == "" {
			msg = resp.Status
		}
		c.log.Warn().Int("status", resp.StatusCode).Str("path", req.URL.Path).Str("error", msg).Msg("x api error")
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return perr.TooManyRequestsf("x: %s", msg)
		case resp.StatusCode == http.StatusUnauthorized:
			return perr.Unauthorizedf("x: %s", msg)
		case resp.StatusCode == http.StatusForbidden:
			return perr.Forbiddenf("x: %s", msg)
		case resp.StatusCode >= 500:
			return perr.Unavailablef("x: %s", msg)
		default:
			return perr.Newf(perr.ErrorCodeUnknown, "x: %s", msg)
		}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "x: decode response")
	}
	return nil
}

func addressee(handle string) string {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return ""
	}
	return "@" + handle + " "
}

func usernames(us []user) map[string]string {
	m := make(map[string]string, len(us))
	for _, u := range us {
		m[u.ID] = u.Username
	}
	return m
}

// before returns the id one below id; a since_id of it still includes id
func before(id string) (string, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return "", false
	}
	return strconv.FormatUint(n-1, 10), true
}

// newerID compares snowflake ids as decimal strings
func newerID(a, b string) bool {
	if b == "" {
		return a != ""
	}
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}
