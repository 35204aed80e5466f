// Package service implements the polling scheduler on top of robfig/cron
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"
	pdom "flexcode/internal/services/pipeline/domain"
	dom "flexcode/internal/services/poller/domain"

	"github.com/robfig/cron/v3"
)

// Config sets job intervals and the per-message handling bound
type Config struct {
	MentionsEvery time.Duration
	DirectEvery   time.Duration
	HandleTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MentionsEvery <= 0 {
		c.MentionsEvery = 30 * time.Second
	}
	if c.DirectEvery <= 0 {
		c.DirectEvery = 60 * time.Second
	}
	if c.HandleTimeout <= 0 {
		c.HandleTimeout = time.Minute
	}
	return c
}

// maxDeliveries bounds how often one message is handed to the pipeline
// before the source is told to move past it
const maxDeliveries = 5

// ErrNoSource is returned by Start and RunOnce when no channel is configured
var ErrNoSource = perr.New(perr.ErrorCodeUnavailable, "no social source configured")

// Svc drives two jobs per source. Each job is single-flight: cron skips a
// tick while the previous run is in progress, and a manual RunOnce never
// overlaps a scheduled run
type Svc struct {
	src  dom.Source
	pipe pdom.PipelinePort
	cfg  Config
	log  logger.Logger

	mentions *job
	direct   *job

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a stopped scheduler. src may be nil, in which case Start fails
func New(src dom.Source, pipe pdom.PipelinePort, cfg Config) *Svc {
	cfg = cfg.withDefaults()
	s := &Svc{src: src, pipe: pipe, cfg: cfg, log: *logger.Named("poller")}
	s.mentions = &job{name: "mentions", kind: pdom.KindMention, every: cfg.MentionsEvery, svc: s}
	s.direct = &job{name: "direct", kind: pdom.KindDirect, every: cfg.DirectEvery, svc: s}
	if src != nil {
		s.mentions.fetch = src.FetchMentions
		s.direct.fetch = src.FetchDirect
	}
	return s
}

// Start schedules both jobs and kicks off an immediate cycle. Calling Start
// on a running scheduler is a no-op. The jobs outlive ctx; use Stop
func (s *Svc) Start(ctx context.Context) error {
	if s.src == nil {
		return ErrNoSource
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cl := cronLogger{l: s.log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	for _, j := range []*job{s.mentions, s.direct} {
		j := j
		c.Schedule(cron.Every(j.every), cron.FuncJob(func() { j.tick(runCtx) }))
	}
	c.Start()
	s.cron, s.cancel = c, cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.RunOnce(runCtx)
	}()

	s.log.Info().
		Str("source", s.src.Name()).
		Dur("mentions_every", s.cfg.MentionsEvery).
		Dur("direct_every", s.cfg.DirectEvery).
		Msg("polling started")
	return nil
}

// Stop cancels in-flight cycles and waits for them to return or ctx to end.
// Interrupted messages are released without a reply and fetched again by
// the next cycle
func (s *Svc) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	cancel()
	done := make(chan struct{})
	go func() {
		<-c.Stop().Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("polling stopped")
		return nil
	case <-ctx.Done():
		return perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "poller stop timed out")
	}
}

// RunOnce polls mentions then direct messages once. Backoff state is
// ignored and left untouched
func (s *Svc) RunOnce(ctx context.Context) error {
	if s.src == nil {
		return ErrNoSource
	}
	return errors.Join(s.mentions.run(ctx), s.direct.run(ctx))
}

// Status implements dom.SchedulerPort
func (s *Svc) Status() dom.Status {
	s.mu.Lock()
	running := s.cron != nil
	s.mu.Unlock()
	name := "none"
	if s.src != nil {
		name = s.src.Name()
	}
	return dom.Status{
		Running:  running,
		Source:   name,
		Mentions: s.mentions.status(),
		Direct:   s.direct.status(),
	}
}

type job struct {
	name  string
	kind  pdom.Kind
	every time.Duration
	fetch func(context.Context) ([]pdom.Message, error)
	svc   *Svc

	flight sync.Mutex

	mu       sync.Mutex
	skip     bool
	lastPoll time.Time
	lastErr  string
	cycles   int64
	fetched  int64
	errs     int64
	dropped  int64
	attempts map[string]int
}

// tick is the scheduled entry. A failed cycle sets skip so the following
// tick is dropped, doubling the interval once
func (j *job) tick(ctx context.Context) {
	j.mu.Lock()
	if j.skip {
		j.skip = false
		j.mu.Unlock()
		j.svc.log.Debug().Str("job", j.name).Msg("poll skipped after error")
		return
	}
	j.mu.Unlock()

	if err := j.run(ctx); err != nil && ctx.Err() == nil {
		j.mu.Lock()
		j.skip = true
		j.mu.Unlock()
	}
}

func (j *job) run(ctx context.Context) error {
	if !j.flight.TryLock() {
		return nil
	}
	defer j.flight.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	msgs, err := j.fetch(ctx)

	j.mu.Lock()
	j.cycles++
	j.lastPoll = start
	if err != nil {
		j.errs++
		j.lastErr = err.Error()
	} else {
		j.lastErr = ""
		j.fetched += int64(len(msgs))
	}
	j.mu.Unlock()

	if err != nil {
		j.svc.log.Error().Err(err).Str("job", j.name).Msg("poll failed")
		return err
	}

	handled := 0
	var failed []pdom.Message
	for i, m := range msgs {
		if ctx.Err() != nil {
			failed = append(failed, msgs[i:]...)
			break
		}
		hctx, cancel := context.WithTimeout(ctx, j.svc.cfg.HandleTimeout)
		res, herr := j.svc.pipe.Handle(hctx, m, j.svc.src)
		cancel()
		switch {
		case herr != nil && ctx.Err() != nil:
			failed = append(failed, m)
		case herr != nil:
			j.svc.log.Warn().Err(herr).Str("job", j.name).Str("message_id", m.DedupKey()).Msg("message not handled")
			if j.retry(m) {
				failed = append(failed, m)
			}
		default:
			j.settle(m)
			if !res.Duplicate {
				handled++
			}
		}
	}
	j.svc.src.Commit(j.kind, failed)

	j.svc.log.Debug().
		Str("job", j.name).
		Int("fetched", len(msgs)).
		Int("handled", handled).
		Int("retrying", len(failed)).
		Dur("took", time.Since(start)).
		Msg("poll cycle")
	return nil
}

// retry counts a failed delivery and reports whether m should be fetched
// again. Interrupted cycles are not counted
func (j *job) retry(m pdom.Message) bool {
	key := m.DedupKey()
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.attempts == nil {
		j.attempts = make(map[string]int)
	}
	j.attempts[key]++
	if n := j.attempts[key]; n >= maxDeliveries {
		delete(j.attempts, key)
		j.dropped++
		j.svc.log.Error().Str("job", j.name).Str("message_id", key).Int("attempts", n).Msg("giving up on message")
		return false
	}
	return true
}

func (j *job) settle(m pdom.Message) {
	j.mu.Lock()
	delete(j.attempts, m.DedupKey())
	j.mu.Unlock()
}

func (j *job) status() dom.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return dom.JobStatus{
		Every:     j.every,
		LastPoll:  j.lastPoll,
		LastError: j.lastErr,
		BackedOff: j.skip,
		Cycles:    j.cycles,
		Fetched:   j.fetched,
		Errors:    j.errs,
		Retrying:  len(j.attempts),
		Dropped:   j.dropped,
	}
}

// cronLogger routes cron's own messages through zerolog
type cronLogger struct{ l logger.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug().Fields(kv).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error().Err(err).Fields(kv).Msg("cron: " + msg)
}
