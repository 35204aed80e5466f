// Package service implements the dedup tracker
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"flexcode/internal/platform/logger"
	dom "flexcode/internal/services/dedup/domain"
)

// Config sets the retention policy. Whichever of MaxAge and MaxCount
// triggers first evicts; zero disables that bound
type Config struct {
	Backend  string
	MaxAge   time.Duration
	MaxCount int
}

// Svc serializes every tracker operation behind one lock, so the
// check-then-claim around a message is a single critical section
type Svc struct {
	mu       sync.Mutex
	store    dom.Store
	cfg      Config
	inflight map[string]struct{}
	evicted  atomic.Int64
	now      func() time.Time
	log      logger.Logger
}

// New builds a tracker over store
func New(store dom.Store, cfg Config) *Svc {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	return &Svc{
		store:    store,
		cfg:      cfg,
		inflight: map[string]struct{}{},
		now:      time.Now,
		log:      *logger.Named("dedup"),
	}
}

// Seen reports whether id was processed within the retention window
func (s *Svc) Seen(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seenLocked(ctx, id)
}

func (s *Svc) seenLocked(ctx context.Context, id string) (bool, error) {
	at, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	if s.cfg.MaxAge > 0 && at.Before(s.now().Add(-s.cfg.MaxAge)) {
		return false, nil
	}
	return true, nil
}

// MarkProcessed records id and applies the retention policy
func (s *Svc) MarkProcessed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markLocked(ctx, id)
}

func (s *Svc) markLocked(ctx context.Context, id string) error {
	now := s.now()
	if err := s.store.Put(ctx, dom.Record{MessageID: id, ProcessedAt: now}); err != nil {
		return err
	}
	var cutoff time.Time
	if s.cfg.MaxAge > 0 {
		cutoff = now.Add(-s.cfg.MaxAge)
	}
	n, err := s.store.Evict(ctx, cutoff, s.cfg.MaxCount)
	if err != nil {
		s.log.Warn().Err(err).Msg("dedup eviction failed")
		return nil
	}
	if n > 0 {
		s.evicted.Add(int64(n))
		s.log.Debug().Int("evicted", n).Msg("dedup evicted records")
	}
	return nil
}

// Claim reserves id unless it was processed or is held by another run
func (s *Svc) Claim(ctx context.Context, id string) (dom.Claim, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return nil, false, nil
	}
	seen, err := s.seenLocked(ctx, id)
	if err != nil || seen {
		return nil, false, err
	}
	s.inflight[id] = struct{}{}
	return &claim{svc: s, id: id}, true, nil
}

// Stats implements dom.TrackerPort
func (s *Svc) Stats() dom.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := s.store.Len(context.Background())
	return dom.Stats{
		Backend:  s.cfg.Backend,
		Size:     n,
		InFlight: len(s.inflight),
		Evicted:  s.evicted.Load(),
	}
}

type claim struct {
	svc  *Svc
	id   string
	once sync.Once
}

// Done releases the claim, marking the message processed when dispatched
func (c *claim) Done(ctx context.Context, dispatched bool) error {
	var err error
	c.once.Do(func() {
		c.svc.mu.Lock()
		defer c.svc.mu.Unlock()
		delete(c.svc.inflight, c.id)
		if dispatched {
			err = c.svc.markLocked(ctx, c.id)
		}
	})
	return err
}
