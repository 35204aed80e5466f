// Package telegram polls a Telegram bot for group mentions and private
// messages and replies by quoting the inbound message
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"
	pdom "flexcode/internal/services/pipeline/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MessageLimit is Telegram's cap on one text message
const MessageLimit = 4096

// Options configures the Bot
type Options struct {
	Token    string
	Endpoint string // defaults to tgbotapi.APIEndpoint
	Timeout  time.Duration
}

// Bot implements the poller Source. One getUpdates call feeds both jobs, so
// whichever job polls first buffers the other kind until it is drained.
// The offset sent to Telegram, which confirms and discards earlier updates,
// never passes an update whose message is buffered, out for handling, or
// failed
type Bot struct {
	api *tgbotapi.BotAPI
	log logger.Logger

	mu       sync.Mutex
	offset   int
	next     int // updates below next are already buffered
	mentions []pdom.Message
	direct   []pdom.Message
	owed     map[string]int // message id -> update id
	out      map[pdom.Kind][]pdom.Message
}

// New connects to the bot API and resolves the bot's own username
func New(o Options) (*Bot, error) {
	if o.Endpoint == "" {
		o.Endpoint = tgbotapi.APIEndpoint
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	hc := &http.Client{Timeout: o.Timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	api, err := tgbotapi.NewBotAPIWithClient(o.Token, o.Endpoint, hc)
	if err != nil {
		return nil, mapErr(err, "telegram: connect")
	}
	return &Bot{
		api:  api,
		log:  *logger.Named("telegram"),
		owed: make(map[string]int),
		out:  make(map[pdom.Kind][]pdom.Message),
	}, nil
}

// Name implements the Source
func (b *Bot) Name() string { return "telegram" }

// Username is the bot's handle without the @
func (b *Bot) Username() string { return b.api.Self.UserName }

// Limit implements pdom.Dispatcher
func (b *Bot) Limit(pdom.Message) int { return MessageLimit }

// FetchMentions returns group messages that mention or reply to the bot
func (b *Bot) FetchMentions(ctx context.Context) ([]pdom.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pullLocked(ctx); err != nil {
		return nil, err
	}
	out := b.mentions
	b.mentions = nil
	b.out[pdom.KindMention] = append(b.out[pdom.KindMention], out...)
	return out, nil
}

// FetchDirect returns private-chat messages
func (b *Bot) FetchDirect(ctx context.Context) ([]pdom.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pullLocked(ctx); err != nil {
		return nil, err
	}
	out := b.direct
	b.direct = nil
	b.out[pdom.KindDirect] = append(b.out[pdom.KindDirect], out...)
	return out, nil
}

// Commit releases the handed-out batch of kind. Failed messages go back to
// the front of the buffer and keep the offset from passing them
func (b *Bot) Commit(kind pdom.Kind, failed []pdom.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keep := make(map[string]bool, len(failed))
	for _, m := range failed {
		keep[m.ID] = true
	}
	var retry []pdom.Message
	for _, m := range b.out[kind] {
		if keep[m.ID] {
			retry = append(retry, m)
			continue
		}
		delete(b.owed, m.ID)
	}
	delete(b.out, kind)
	if kind == pdom.KindDirect {
		b.direct = append(retry, b.direct...)
	} else {
		b.mentions = append(retry, b.mentions...)
	}
	b.offset = b.floorLocked()
}

func (b *Bot) floorLocked() int {
	low := b.next
	for _, id := range b.owed {
		if id < low {
			low = id
		}
	}
	return low
}

func (b *Bot) pullLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := tgbotapi.NewUpdate(b.offset)
	u.Limit = 100
	u.AllowedUpdates = []string{"message"}
	updates, err := b.api.GetUpdates(u)
	if err != nil {
		return mapErr(err, "telegram: getUpdates")
	}
	for _, up := range updates {
		if up.UpdateID < b.next {
			continue
		}
		b.next = up.UpdateID + 1
		m := up.Message
		if m == nil || m.Chat == nil || strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.From != nil && m.From.ID == b.api.Self.ID {
			continue
		}
		switch {
		case m.Chat.IsPrivate():
			msg := b.toMessage(m, pdom.KindDirect)
			b.owed[msg.ID] = up.UpdateID
			b.direct = append(b.direct, msg)
		case b.addressed(m):
			msg := b.toMessage(m, pdom.KindMention)
			b.owed[msg.ID] = up.UpdateID
			b.mentions = append(b.mentions, msg)
		}
	}
	b.offset = b.floorLocked()
	return nil
}

// addressed reports a group message that names the bot or replies to it
func (b *Bot) addressed(m *tgbotapi.Message) bool {
	if r := m.ReplyToMessage; r != nil && r.From != nil && r.From.ID == b.api.Self.ID {
		return true
	}
	name := b.api.Self.UserName
	return name != "" && strings.Contains(strings.ToLower(m.Text), "@"+strings.ToLower(name))
}

func (b *Bot) toMessage(m *tgbotapi.Message, kind pdom.Kind) pdom.Message {
	chat := strconv.FormatInt(m.Chat.ID, 10)
	out := pdom.Message{
		Source:       "telegram",
		ID:           chat + ":" + strconv.Itoa(m.MessageID),
		Kind:         kind,
		Conversation: chat,
		ReplyToID:    strconv.Itoa(m.MessageID),
		Text:         m.Text,
		ReceivedAt:   m.Time(),
	}
	if m.From != nil {
		out.AuthorID = strconv.FormatInt(m.From.ID, 10)
		out.AuthorHandle = m.From.UserName
		if out.AuthorHandle == "" {
			out.AuthorHandle = strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
		}
	}
	return out
}

// Reply sends text into the originating chat, quoting the inbound message
func (b *Bot) Reply(ctx context.Context, m pdom.Message, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(m.Conversation, 10, 64)
	if err != nil {
		return perr.InvalidArgf("telegram: bad chat id %q", m.Conversation)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if id, err := strconv.Atoi(m.ReplyToID); err == nil {
		msg.ReplyToMessageID = id
	}
	if _, err := b.api.Send(msg); err != nil {
		return mapErr(err, "telegram: sendMessage")
	}
	return nil
}

func mapErr(err error, op string) error {
	var te *tgbotapi.Error
	if errors.As(err, &te) {
		switch {
		case te.Code == http.StatusTooManyRequests:
			return perr.WithOp(perr.TooManyRequestsf("%s (retry after %ds)", te.Message, te.RetryAfter), op)
		case te.Code == http.StatusUnauthorized:
			return perr.WithOp(perr.Unauthorizedf("%s", te.Message), op)
		case te.Code == http.StatusForbidden:
			return perr.WithOp(perr.Forbiddenf("%s", te.Message), op)
		case te.Code >= 500:
			return perr.WithOp(perr.Unavailablef("%s", te.Message), op)
		default:
			return perr.WithOp(perr.Newf(perr.ErrorCodeUnknown, "%s", te.Message), op)
		}
	}
	return perr.Wrap(err, perr.ErrorCodeUnavailable, op)
}
