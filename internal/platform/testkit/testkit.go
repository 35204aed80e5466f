// Package testkit holds assertions shared by package tests
package testkit

import (
	"strings"
	"testing"
)

// MustPanic fails tb unless fn panics
func MustPanic(tb testing.TB, fn func()) {
	tb.Helper()
	defer func() {
		if recover() == nil {
			tb.Fatal("expected a panic")
		}
	}()
	fn()
}

// MustContain fails tb unless got contains want, printing got in full since
// log output is usually the thing being searched
func MustContain(tb testing.TB, got, want string) {
	tb.Helper()
	if !strings.Contains(got, want) {
		tb.Fatalf("missing %q in:\n%s", want, got)
	}
}
