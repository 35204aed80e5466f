// Package domain defines the inbound message shape and the pipeline ports
package domain

import (
	"context"
	"time"

	"flexcode/internal/core/assemble"
	"flexcode/internal/core/extract"
)

// Kind tells mentions from direct messages
type Kind uint8

const (
	// KindMention is a public mention of the bot
	KindMention Kind = iota + 1
	// KindDirect is a private message to the bot
	KindDirect
)

func (k Kind) String() string {
	switch k {
	case KindMention:
		return "MENTION"
	case KindDirect:
		return "DIRECT_MESSAGE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the kind name
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Message is one inbound message from a social source
type Message struct {
	Source       string    `json:"source"` // x | telegram | api
	ID           string    `json:"id"`     // unique within Source
	Kind         Kind      `json:"kind"`
	AuthorHandle string    `json:"author_handle"`
	AuthorID     string    `json:"author_id,omitempty"`
	Conversation string    `json:"conversation,omitempty"` // chat or DM conversation id
	ReplyToID    string    `json:"reply_to_id,omitempty"`  // native id to thread the reply under
	Text         string    `json:"text"`
	ReceivedAt   time.Time `json:"received_at"`
}

// DedupKey identifies the message across sources
func (m Message) DedupKey() string { return m.Source + ":" + m.ID }

// Dispatcher sends a reply back through the message's source
type Dispatcher interface {
	// Limit is the largest reply body, in runes, the channel accepts for msg
	Limit(msg Message) int
	Reply(ctx context.Context, msg Message, text string) error
}

// Result summarizes one pipeline run
type Result struct {
	RunID      string             `json:"run_id"`
	MessageID  string             `json:"message_id"`
	Duplicate  bool               `json:"duplicate"`
	Dispatched bool               `json:"dispatched"`
	Reply      string             `json:"reply,omitempty"`
	Spans      []extract.Span     `json:"spans,omitempty"`
	Requests   []assemble.Request `json:"-"`
	Converted  int                `json:"converted"`
	Failed     int                `json:"failed"`
	Ambiguous  int                `json:"ambiguous"`
	Duration   time.Duration      `json:"duration_ns"`
}

// Stats are cumulative pipeline counters
type Stats struct {
	Processed  int64 `json:"processed"`
	Replied    int64 `json:"replied"`
	Duplicates int64 `json:"duplicates"`
	Failures   int64 `json:"dispatch_failures"`
}

// PipelinePort is the single entry point every surface calls
type PipelinePort interface {
	// Handle runs msg end to end: dedup, extraction, conversion, reply, mark
	Handle(ctx context.Context, msg Message, out Dispatcher) (Result, error)
	// Preview runs extraction, conversion and composition without dedup or
	// dispatch
	Preview(ctx context.Context, text string, limit int) Result
	Stats() Stats
}
