// Package service runs one inbound message through extraction, conversion,
// composition and dispatch
package service

import (
	"context"
	"sync/atomic"
	"time"

	"flexcode/internal/core/assemble"
	"flexcode/internal/core/compose"
	"flexcode/internal/core/extract"
	"flexcode/internal/core/normalize"
	"flexcode/internal/core/platform"
	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"
	convdom "flexcode/internal/services/convert/domain"
	dedupdom "flexcode/internal/services/dedup/domain"
	dom "flexcode/internal/services/pipeline/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("flexcode/pipeline")

// Svc is the pipeline. It holds no per-message state and is safe for
// concurrent use
type Svc struct {
	x       extract.Extractor
	orch    convdom.OrchestratorPort
	tracker dedupdom.TrackerPort
	now     func() time.Time

	processed  atomic.Int64
	replied    atomic.Int64
	duplicates atomic.Int64
	failures   atomic.Int64
}

// New builds the pipeline
func New(x extract.Extractor, orch convdom.OrchestratorPort, tracker dedupdom.TrackerPort) *Svc {
	return &Svc{
		x:       x,
		orch:    orch,
		tracker: tracker,
		now:     time.Now,
	}
}

// Handle claims msg, builds the reply and dispatches it. Duplicates return
// with Duplicate set and no error. The message is marked processed only after
// a successful dispatch; a cancelled context or a failed dispatch releases it
// so a later delivery can retry
func (s *Svc) Handle(ctx context.Context, msg dom.Message, out dom.Dispatcher) (dom.Result, error) {
	key := msg.DedupKey()
	ctx = logger.WithRequest(ctx, "", key)
	ctx, span := tracer.Start(ctx, "pipeline.handle", trace.WithAttributes(
		attribute.String("message.id", key),
		attribute.String("message.kind", msg.Kind.String()),
	))
	defer span.End()

	c, ok, err := s.tracker.Claim(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dedup")
		return dom.Result{MessageID: key}, err
	}
	if !ok {
		s.duplicates.Add(1)
		span.SetAttributes(attribute.Bool("message.duplicate", true))
		logger.C(ctx).Debug().Str("source", msg.Source).Msg("duplicate message skipped")
		return dom.Result{MessageID: key, Duplicate: true}, nil
	}
	s.processed.Add(1)

	res := s.run(ctx, msg.Text, out.Limit(msg))
	res.MessageID = key

	if err := ctx.Err(); err != nil {
		_ = c.Done(context.WithoutCancel(ctx), false)
		span.SetStatus(codes.Error, "interrupted")
		s.summary(ctx, msg, res).Msg("pipeline interrupted, no reply sent")
		return res, perr.Wrap(err, perr.ErrorCodeUnavailable, "pipeline interrupted")
	}

	if err := out.Reply(ctx, msg, res.Reply); err != nil {
		s.failures.Add(1)
		_ = c.Done(context.WithoutCancel(ctx), false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch")
		logger.C(ctx).Error().Err(err).Str("source", msg.Source).Str("author", msg.AuthorHandle).Msg("reply dispatch failed")
		return res, perr.WithOp(err, "pipeline.dispatch")
	}
	res.Dispatched = true
	s.replied.Add(1)

	if err := c.Done(ctx, true); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("mark processed failed")
	}
	s.summary(ctx, msg, res).Msg("message handled")
	return res, nil
}

// Preview runs the pipeline without dedup or dispatch
func (s *Svc) Preview(ctx context.Context, text string, limit int) dom.Result {
	ctx, span := tracer.Start(ctx, "pipeline.preview")
	defer span.End()
	return s.run(ctx, text, limit)
}

// Stats implements dom.PipelinePort
func (s *Svc) Stats() dom.Stats {
	return dom.Stats{
		Processed:  s.processed.Load(),
		Replied:    s.replied.Load(),
		Duplicates: s.duplicates.Load(),
		Failures:   s.failures.Load(),
	}
}

func (s *Svc) run(ctx context.Context, text string, limit int) dom.Result {
	start := s.now()
	res := dom.Result{RunID: uuid.NewString()}

	clean := normalize.Preprocess(text)

	_, xs := tracer.Start(ctx, "pipeline.extract")
	res.Spans = s.x.Extract(ctx, clean)
	res.Requests = assemble.Assemble(res.Spans)
	xs.SetAttributes(attribute.Int("spans", len(res.Spans)), attribute.Int("requests", len(res.Requests)))
	xs.End()
	for _, r := range res.Requests {
		if r.Crowded() {
			logger.C(ctx).Warn().
				Str("code", r.Code).
				Str("from", string(r.Source.ID)).
				Str("to", string(r.Target.ID)).
				Strs("unused", platformIDs(r.Unused)).
				Msg("clause names more than two platforms, nearest pair used")
		}
	}

	_, ambiguous := assemble.Split(res.Requests)
	outcomes := s.orch.ConvertAll(ctx, res.Requests)
	for _, o := range outcomes {
		if o.OK() {
			res.Converted++
		} else {
			res.Failed++
		}
	}
	res.Ambiguous = len(ambiguous)

	res.Reply = compose.Compose(outcomes, ambiguous, limit)
	res.Duration = s.now().Sub(start)
	return res
}

func platformIDs(ps []platform.Platform) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p.ID)
	}
	return out
}

func (s *Svc) summary(ctx context.Context, msg dom.Message, res dom.Result) *logger.Event {
	return logger.C(ctx).Info().
		Str("run_id", res.RunID).
		Str("source", msg.Source).
		Stringer("kind", msg.Kind).
		Int("requests", len(res.Requests)).
		Int("converted", res.Converted).
		Int("failed", res.Failed).
		Int("ambiguous", res.Ambiguous).
		Bool("dispatched", res.Dispatched).
		Dur("duration", res.Duration)
}

// LogDispatcher writes replies to the log instead of a channel. It backs
// webhook calls when no social source is configured
type LogDispatcher struct {
	Max int
}

// Limit implements dom.Dispatcher
func (d LogDispatcher) Limit(dom.Message) int { return d.Max }

// Reply implements dom.Dispatcher
func (d LogDispatcher) Reply(ctx context.Context, msg dom.Message, text string) error {
	logger.C(ctx).Info().Str("to", msg.AuthorHandle).Str("reply", text).Msg("reply (no channel)")
	return nil
}
