package module

import (
	"time"

	"flexcode/internal/platform/config"
)

// Options controls the conversion client and orchestrator
type Options struct {
	Mode        string // live | simulate
	APIKey      string
	BaseURL     string
	RatePerSec  float64
	Burst       int
	Supported   []string
	Concurrency int
	MaxRetries  int
	RetryBase   time.Duration
	CallTimeout time.Duration
	Budget      time.Duration
}

// FromConfig reads with CONVERT_ prefix. Mode defaults to simulate when no
// API key is configured
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CONVERT_")
	key := c.MayString("BET_API_KEY", "")
	mode := "live"
	if key == "" {
		mode = "simulate"
	}
	return Options{
		Mode:        c.MayEnum("BET_MODE", mode, "live", "simulate"),
		APIKey:      key,
		BaseURL:     c.MayString("BET_BASE_URL", ""),
		RatePerSec:  c.MayFloat64("BET_RPS", 2.0),
		Burst:       c.MayInt("BET_BURST", 4),
		Supported:   c.MayCSV("BET_PLATFORMS", nil),
		Concurrency: c.MayInt("CONCURRENCY", 3),
		MaxRetries:  c.MayInt("MAX_RETRIES", 3),
		RetryBase:   c.MayDuration("RETRY_BASE", 500*time.Millisecond),
		CallTimeout: c.MayDuration("CALL_TIMEOUT", 10*time.Second),
		Budget:      c.MayDuration("BUDGET", 45*time.Second),
	}
}
