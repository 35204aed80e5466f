// Package logger owns the process zerolog root. Code logs through Get for
// process events, Named for long-lived components and C for anything
// running on behalf of a request or message
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"flexcode/internal/core/version"
	"flexcode/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the project logging type
type Logger = zerolog.Logger

// Event is a pending log line
type Event = zerolog.Event

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// Options shape the root logger
type Options struct {
	Level   string
	Format  string // json or console
	Service string
	Caller  bool
	Writer  io.Writer // stdout when nil

	// SampleEvery keeps one debug line in N when above 1
	SampleEvery int
}

// FromEnv reads the LOG_ settings
func FromEnv() Options {
	return Options{
		Level:   raw.Get("LOG_LEVEL", "info"),
		Format:  raw.Get("LOG_FORMAT", "console"),
		Service: raw.Get("LOG_SERVICE", "flexcode"),
		Caller:  raw.Bool("LOG_CALLER", false),

		SampleEvery: raw.Int("LOG_SAMPLE_EVERY", 0),
	}
}

// New builds a logger from o. Unknown levels log at info
func New(o Options) Logger {
	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	if strings.EqualFold(o.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(o.Level)))
	if err != nil || o.Level == "" {
		lvl = zerolog.InfoLevel
	}

	zc := zerolog.New(w).Level(lvl).With().Timestamp().Str("version", version.Info().Version)
	if o.Service != "" {
		zc = zc.Str("service", o.Service)
	}
	if o.Caller {
		zc = zc.Caller()
	}
	l := zc.Logger()
	if o.SampleEvery > 1 {
		l = l.Sample(zerolog.LevelSampler{DebugSampler: &zerolog.BasicSampler{N: uint32(o.SampleEvery)}})
	}
	return l
}

var root atomic.Pointer[Logger]

// Set replaces the root logger
func Set(l Logger) { root.Store(&l) }

// Get returns the root logger, building it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	l := New(FromEnv())
	root.CompareAndSwap(nil, &l)
	return root.Load()
}

// Named returns a child of the root tagged with component
func Named(component string) *Logger {
	l := Get().With().Str("component", component).Logger()
	return &l
}

// WithRequest returns ctx carrying a logger tagged with the request and
// message ids. Empty ids are skipped, so calls can layer
func WithRequest(ctx context.Context, reqID, messageID string) context.Context {
	zc := C(ctx).With()
	if reqID != "" {
		zc = zc.Str("request_id", reqID)
	}
	if messageID != "" {
		zc = zc.Str("message_id", messageID)
	}
	return zc.Logger().WithContext(ctx)
}

// C returns the logger carried by ctx, or the root when there is none
func C(ctx context.Context) *Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Get()
}
