// Package domain defines the dedup tracker ports
package domain

import (
	"context"
	"time"
)

// Record is one processed message
type Record struct {
	MessageID   string
	ProcessedAt time.Time
}

// TrackerPort is what the pipeline sees
type TrackerPort interface {
	Seen(ctx context.Context, id string) (bool, error)
	MarkProcessed(ctx context.Context, id string) error
	// Claim reserves id for one pipeline run. ok is false when the message was
	// already processed or another run holds it
	Claim(ctx context.Context, id string) (c Claim, ok bool, err error)
	Stats() Stats
}

// Claim is released exactly once. Done(true) marks the message processed;
// Done(false) lets a later delivery retry it
type Claim interface {
	Done(ctx context.Context, dispatched bool) error
}

// Stats reports tracker size and eviction counts
type Stats struct {
	Backend  string `json:"backend"`
	Size     int    `json:"size"`
	InFlight int    `json:"in_flight"`
	Evicted  int64  `json:"evicted"`
}

// Store persists processed records. Implementations need not be safe for
// concurrent use; the tracker serializes access
type Store interface {
	Get(ctx context.Context, id string) (time.Time, bool, error)
	Put(ctx context.Context, rec Record) error
	// Evict removes records older than cutoff, then the oldest beyond maxCount
	// when maxCount > 0. It returns how many were removed
	Evict(ctx context.Context, cutoff time.Time, maxCount int) (int, error)
	Len(ctx context.Context) (int, error)
}
