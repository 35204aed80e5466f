// Package http provides the bot ops endpoints
package http

import (
	stdhttp "net/http"
	"time"

	"flexcode/internal/modkit/httpkit"
	"flexcode/internal/platform/logger"
	"flexcode/internal/platform/net/middleware"
	"flexcode/internal/services/bot/domain"
	dedupdom "flexcode/internal/services/dedup/domain"
	pdom "flexcode/internal/services/pipeline/domain"
	polldom "flexcode/internal/services/poller/domain"

	"github.com/google/uuid"
)

// Deps are the handler dependencies
type Deps struct {
	Scheduler  polldom.SchedulerPort
	Pipeline   pdom.PipelinePort
	Tracker    dedupdom.TrackerPort
	Dispatcher pdom.Dispatcher

	ConvertMode string
	Extractor   string

	// Auth guards every route except status. Nil leaves them open
	Auth middleware.AuthPort
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the bot routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}

	httpkit.Get(r, "/bot/status", h.status)

	ops := func(r httpkit.Router) {
		httpkit.Post(r, "/bot/start", h.start)
		httpkit.Post(r, "/bot/stop", h.stop)
		httpkit.PostJSON[domain.TestMentionInput](r, "/test/mention", h.testMention)
		httpkit.PostJSON[domain.MessageInput](r, "/process_mention", h.processMention)
		httpkit.PostJSON[domain.MessageInput](r, "/process_dm", h.processDM)
	}
	httpkit.Protected(r, d.Auth, ops)
}

func (h *handlers) status(_ *stdhttp.Request) (any, error) {
	s := h.deps.Scheduler.Status()
	return domain.StatusResponse{
		Running:   s.Running,
		Source:    s.Source,
		Mentions:  domain.NewJobView(s.Mentions),
		Direct:    domain.NewJobView(s.Direct),
		Pipeline:  h.deps.Pipeline.Stats(),
		Dedup:     h.deps.Tracker.Stats(),
		Convert:   h.deps.ConvertMode,
		Extractor: h.deps.Extractor,
		Now:       h.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *handlers) start(r *stdhttp.Request) (any, error) {
	if err := h.deps.Scheduler.Start(r.Context()); err != nil {
		return nil, err
	}
	logger.C(r.Context()).Info().Str("operator", operator(r)).Msg("polling started via api")
	return domain.ControlResponse{Running: true, Message: "polling started"}, nil
}

func (h *handlers) stop(r *stdhttp.Request) (any, error) {
	if err := h.deps.Scheduler.Stop(r.Context()); err != nil {
		return nil, err
	}
	logger.C(r.Context()).Info().Str("operator", operator(r)).Msg("polling stopped via api")
	return domain.ControlResponse{Running: false, Message: "polling stopped"}, nil
}

func (h *handlers) testMention(r *stdhttp.Request, in domain.TestMentionInput) (any, error) {
	limit := in.Limit
	if limit == 0 {
		limit = h.deps.Dispatcher.Limit(pdom.Message{Kind: pdom.KindMention})
	}
	return domain.NewProcessResponse(h.deps.Pipeline.Preview(r.Context(), in.Text, limit)), nil
}

func (h *handlers) processMention(r *stdhttp.Request, in domain.MessageInput) (any, error) {
	return h.process(r, in, pdom.KindMention)
}

func (h *handlers) processDM(r *stdhttp.Request, in domain.MessageInput) (any, error) {
	return h.process(r, in, pdom.KindDirect)
}

func (h *handlers) process(r *stdhttp.Request, in domain.MessageInput, kind pdom.Kind) (any, error) {
	msg := h.message(in, kind)
	res, err := h.deps.Pipeline.Handle(r.Context(), msg, h.deps.Dispatcher)
	if err != nil {
		return nil, err
	}
	return domain.NewProcessResponse(res), nil
}

// message maps a webhook payload onto the configured source so webhook and
// polled deliveries of the same id dedup against each other
func (h *handlers) message(in domain.MessageInput, kind pdom.Kind) pdom.Message {
	src := h.deps.Scheduler.Status().Source
	if src == "" || src == "none" {
		src = "api"
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	conv := in.Conversation
	if conv == "" && kind == pdom.KindMention {
		conv = id
	}
	return pdom.Message{
		Source:       src,
		ID:           id,
		Kind:         kind,
		AuthorHandle: in.AuthorHandle,
		AuthorID:     in.AuthorID,
		Conversation: conv,
		ReplyToID:    id,
		Text:         in.Text,
		ReceivedAt:   h.now(),
	}
}

// operator names the caller of an ops route, "anonymous" when the guard is off
func operator(r *stdhttp.Request) string {
	if op, err := httpkit.Operator(r); err == nil {
		return op
	}
	return "anonymous"
}
