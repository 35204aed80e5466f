// Package config reads settings from the environment. Keys compose from
// prefixes, so New().Prefix("BET_").MayInt("RPS", 2) reads BET_RPS
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"flexcode/internal/platform/logger"
)

// Conf is a prefixed view over the environment. The zero value reads
// unprefixed keys
type Conf struct {
	prefix string
}

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix narrows the view, appending p to the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key returns the environment variable name for key
func (c Conf) Key(key string) string { return c.prefix + key }

func (c Conf) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(c.Key(key))
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// read returns def when key is unset, and def with a warning when the value
// does not parse
func read[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s, ok := c.lookup(key)
	if !ok {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", c.Key(key)).Str("value", s).
			Interface("default", def).Msg("ignoring unparsable setting")
		return def
	}
	return v
}

// MayString returns the trimmed value or def
func (c Conf) MayString(key, def string) string {
	if s, ok := c.lookup(key); ok {
		return s
	}
	return def
}

// MayInt reads a base 10 integer
func (c Conf) MayInt(key string, def int) int { return read(c, key, def, strconv.Atoi) }

// MayFloat64 reads a float such as a rate per second
func (c Conf) MayFloat64(key string, def float64) float64 {
	return read(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool reads anything strconv.ParseBool accepts
func (c Conf) MayBool(key string, def bool) bool { return read(c, key, def, strconv.ParseBool) }

// MayDuration reads a Go duration such as 30s or 1h30m
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return read(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma separated list, dropping blanks. A list with no
// entries left yields def
func (c Conf) MayCSV(key string, def []string) []string {
	s, ok := c.lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the allowed spelling matching the value case-insensitively,
// or def when unset. A value outside allowed is a deployment error and panics
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	s, ok := c.lookup(key)
	if !ok {
		return def
	}
	for _, a := range allowed {
		if strings.EqualFold(s, a) {
			return a
		}
	}
	logger.Get().Panic().Str("key", c.Key(key)).Str("value", s).Strs("allowed", allowed).Msg("setting outside allowed values")
	return def
}

// MustString returns the value or panics when it is unset
func (c Conf) MustString(key string) string {
	s, ok := c.lookup(key)
	if !ok {
		logger.Get().Panic().Str("key", c.Key(key)).Msg("required setting missing")
	}
	return s
}

// Addr reads a TCP port and returns it as a listen address like ":4000"
func (c Conf) Addr(key string, def int) string {
	p := read(c, key, def, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err == nil && (n < 1 || n > 65535) {
			err = fmt.Errorf("port %d out of range", n)
		}
		return n, err
	})
	return ":" + strconv.Itoa(p)
}
