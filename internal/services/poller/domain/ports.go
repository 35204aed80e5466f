// Package domain defines the polling scheduler ports
package domain

import (
	"context"
	"time"

	pdom "flexcode/internal/services/pipeline/domain"
)

// Source is a social channel the scheduler pulls from and replies through
type Source interface {
	pdom.Dispatcher
	Name() string
	// FetchMentions returns public mentions newer than the last call
	FetchMentions(ctx context.Context) ([]pdom.Message, error)
	// FetchDirect returns direct messages newer than the last call
	FetchDirect(ctx context.Context) ([]pdom.Message, error)
	// Commit closes the last batch fetched for kind. Messages in failed are
	// fetched again by a later call; the rest of the batch never is
	Commit(kind pdom.Kind, failed []pdom.Message)
}

// JobStatus reports one polling job
type JobStatus struct {
	Every     time.Duration `json:"every_ns"`
	LastPoll  time.Time     `json:"last_poll,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	BackedOff bool          `json:"backed_off"`
	Cycles    int64         `json:"cycles"`
	Fetched   int64         `json:"fetched"`
	Errors    int64         `json:"errors"`
	Retrying  int           `json:"retrying"`
	Dropped   int64         `json:"dropped"`
}

// Status reports the scheduler
type Status struct {
	Running  bool      `json:"running"`
	Source   string    `json:"source"`
	Mentions JobStatus `json:"mentions"`
	Direct   JobStatus `json:"direct_messages"`
}

// SchedulerPort starts and stops polling and runs single cycles on demand
type SchedulerPort interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// RunOnce polls both jobs once, skipping any job already in flight
	RunOnce(ctx context.Context) error
	Status() Status
}
