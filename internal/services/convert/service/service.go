// Package service implements the conversion orchestrator
package service

import (
	"context"
	"time"

	"flexcode/internal/core/assemble"
	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"
	dom "flexcode/internal/services/convert/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Config controls retries, timeouts and fan-out
type Config struct {
	Concurrency int
	MaxRetries  int
	RetryBase   time.Duration
	RetryCap    time.Duration
	CallTimeout time.Duration
	Budget      time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryCap <= 0 {
		c.RetryCap = 8 * time.Second
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	return c
}

// Svc is the orchestrator
type Svc struct {
	conv  dom.Converter
	cfg   Config
	log   logger.Logger
	sleep func(context.Context, time.Duration) error
}

// New constructs the orchestrator around conv
func New(conv dom.Converter, cfg Config) *Svc {
	return &Svc{
		conv:  conv,
		cfg:   cfg.withDefaults(),
		log:   *logger.Named("convert"),
		sleep: sleepCtx,
	}
}

var tracer = otel.Tracer("flexcode/convert")

// ConvertAll dispatches every complete request, at most Concurrency at a
// time, and returns one outcome per complete request in request order.
// Ambiguous requests are skipped. When the budget runs out the requests still
// pending come back as transient failures
func (s *Svc) ConvertAll(ctx context.Context, reqs []assemble.Request) []assemble.Outcome {
	complete, _ := assemble.Split(reqs)
	if len(complete) == 0 {
		return nil
	}

	if s.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Budget)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "convert.all")
	defer span.End()
	span.SetAttributes(attribute.Int("requests", len(complete)))

	out := make([]assemble.Outcome, len(complete))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i := range complete {
		r := complete[i]
		g.Go(func() error {
			out[i] = s.one(ctx, r)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// one runs a single request through the retry loop
func (s *Svc) one(ctx context.Context, r assemble.Request) assemble.Outcome {
	ctx, span := tracer.Start(ctx, "convert.call")
	defer span.End()
	span.SetAttributes(
		attribute.String("code", r.Code),
		attribute.String("from", r.Source.Slug),
		attribute.String("to", r.Target.Slug),
	)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return s.failed(span, r, assemble.ReasonTransient, err, attempt)
		}

		cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		code, err := s.conv.Convert(cctx, r.Code, r.Source.Slug, r.Target.Slug)
		cancel()
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt+1))
			return assemble.Converted(r, code)
		}

		switch {
		case perr.IsCode(err, perr.ErrorCodeInvalidCode):
			return s.failed(span, r, assemble.ReasonInvalidCode, err, attempt)
		case perr.IsCode(err, perr.ErrorCodeUnsupportedPair):
			return s.failed(span, r, assemble.ReasonUnsupportedPair, err, attempt)
		case ctx.Err() != nil:
			return s.failed(span, r, assemble.ReasonTransient, err, attempt)
		case !perr.Retryable(err):
			return s.failed(span, r, assemble.ReasonRejected, err, attempt)
		case attempt >= s.cfg.MaxRetries:
			return s.failed(span, r, assemble.ReasonTransient, err, attempt)
		}

		back := s.backoff(attempt)
		s.log.Warn().Err(err).Str("code", r.Code).Int("attempt", attempt).Dur("retry_in", back).
			Msg("conversion transient error retrying")
		if err := s.sleep(ctx, back); err != nil {
			return s.failed(span, r, assemble.ReasonTransient, err, attempt)
		}
	}
}

func (s *Svc) failed(span trace.Span, r assemble.Request, reason assemble.Reason, err error, attempt int) assemble.Outcome {
	if err != nil {
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, reason.String())
	s.log.Info().Err(err).Str("code", r.Code).Str("reason", reason.String()).Int("attempts", attempt+1).
		Msg("conversion failed")
	return assemble.Failed(r, reason, err)
}

func (s *Svc) backoff(attempt int) time.Duration {
	d := s.cfg.RetryBase << uint(attempt)
	if d <= 0 || d > s.cfg.RetryCap {
		d = s.cfg.RetryCap
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
