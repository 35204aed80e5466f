// Package domain holds DTOs for the bot ops endpoints
package domain

import (
	"time"

	dedupdom "flexcode/internal/services/dedup/domain"
	pdom "flexcode/internal/services/pipeline/domain"
	polldom "flexcode/internal/services/poller/domain"
)

// StatusResponse reports the scheduler and pipeline counters
type StatusResponse struct {
	Running   bool           `json:"running"    example:"true"`
	Source    string         `json:"source"     example:"x"`
	Mentions  JobView        `json:"mentions"`
	Direct    JobView        `json:"direct"`
	Pipeline  pdom.Stats     `json:"pipeline"`
	Dedup     dedupdom.Stats `json:"dedup"`
	Convert   string         `json:"convert"    example:"simulate"`
	Extractor string         `json:"extractor"  example:"rules"`
	Now       string         `json:"now"        example:"2026-01-01T10:00:00Z"`
}

// JobView is one polling job as rendered over HTTP
type JobView struct {
	Every     string `json:"every"               example:"30s"`
	LastPoll  string `json:"last_poll,omitempty" example:"2026-01-01T09:59:30Z"`
	LastError string `json:"last_error,omitempty"`
	BackedOff bool   `json:"backed_off"`
	Cycles    int64  `json:"cycles"              example:"12"`
	Fetched   int64  `json:"fetched"             example:"3"`
	Errors    int64  `json:"errors"              example:"0"`
	Retrying  int    `json:"retrying"            example:"0"`
	Dropped   int64  `json:"dropped"             example:"0"`
}

// NewJobView renders a poller job status
func NewJobView(s polldom.JobStatus) JobView {
	v := JobView{
		Every:     s.Every.String(),
		LastError: s.LastError,
		BackedOff: s.BackedOff,
		Cycles:    s.Cycles,
		Fetched:   s.Fetched,
		Errors:    s.Errors,
		Retrying:  s.Retrying,
		Dropped:   s.Dropped,
	}
	if !s.LastPoll.IsZero() {
		v.LastPoll = s.LastPoll.UTC().Format(time.RFC3339)
	}
	return v
}

// ControlResponse answers start and stop
type ControlResponse struct {
	Running bool   `json:"running" example:"true"`
	Message string `json:"message" example:"polling started"`
}

// TestMentionInput runs text through the pipeline without dispatch
type TestMentionInput struct {
	Text  string `json:"text"            validate:"required,max=1000" example:"@flexbot ABC123 from Stake to Betway"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=20,max=10000" example:"280"`
}

// MessageInput is a webhook delivery of one mention or direct message
type MessageInput struct {
	ID           string `json:"id,omitempty"            validate:"omitempty,max=128" example:"1790000000000000001"`
	AuthorHandle string `json:"author_handle"           validate:"required,max=64,handle" example:"punter"`
	AuthorID     string `json:"author_id,omitempty"     validate:"omitempty,max=64" example:"7"`
	Conversation string `json:"conversation,omitempty"  validate:"omitempty,max=128" example:"1790000000000000001"`
	Text         string `json:"text"                    validate:"required,max=1000" example:"@flexbot ABC123 from Stake to Betway"`
}

// ProcessResponse reports one pipeline run
type ProcessResponse struct {
	MessageID  string `json:"message_id"  example:"x:1790000000000000001"`
	RunID      string `json:"run_id,omitempty"`
	Duplicate  bool   `json:"duplicate"`
	Dispatched bool   `json:"dispatched"`
	Reply      string `json:"reply,omitempty" example:"Converted codes: Stake ABC123 to Betway: CONVABC123"`
	Converted  int    `json:"converted"`
	Failed     int    `json:"failed"`
	Ambiguous  int    `json:"ambiguous"`
	DurationMS int64  `json:"duration_ms"`
}

// NewProcessResponse renders a pipeline result
func NewProcessResponse(r pdom.Result) ProcessResponse {
	return ProcessResponse{
		MessageID:  r.MessageID,
		RunID:      r.RunID,
		Duplicate:  r.Duplicate,
		Dispatched: r.Dispatched,
		Reply:      r.Reply,
		Converted:  r.Converted,
		Failed:     r.Failed,
		Ambiguous:  r.Ambiguous,
		DurationMS: r.Duration.Milliseconds(),
	}
}
