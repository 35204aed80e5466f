// Package raw reads the few settings needed before the logger exists. It
// must not import the logger
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Get returns the trimmed value of key, or def when unset or blank
func Get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Bool parses key with strconv.ParseBool. Unset or unparsable yields def
func Bool(key string, def bool) bool {
	b, err := strconv.ParseBool(Get(key, ""))
	if err != nil {
		return def
	}
	return b
}

// Int parses key as a base 10 int. Unset or unparsable yields def
func Int(key string, def int) int {
	n, err := strconv.Atoi(Get(key, ""))
	if err != nil {
		return def
	}
	return n
}
