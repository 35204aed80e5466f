package module

import (
	"time"

	"flexcode/internal/platform/config"
)

// Options controls the dedup tracker
type Options struct {
	Backend  string // memory | pg
	MaxAge   time.Duration
	MaxCount int
	Migrate  bool
}

// FromConfig reads with DEDUP_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("DEDUP_")
	return Options{
		Backend:  c.MayEnum("BACKEND", "memory", "memory", "pg"),
		MaxAge:   c.MayDuration("MAX_AGE", 24*time.Hour),
		MaxCount: c.MayInt("MAX_COUNT", 10000),
		Migrate:  c.MayBool("MIGRATE", true),
	}
}
