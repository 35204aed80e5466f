package pg

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWaitReady(t *testing.T) {
	cases := []struct {
		name     string
		failures int
		attempts int
		wantErr  bool
		wantCall int
	}{
		{"first try", 0, 3, false, 1},
		{"recovers", 2, 3, false, 3},
		{"gives up", 5, 3, true, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			ping := func(context.Context) error {
				calls++
				if calls <= tc.failures {
					return errors.New("refused")
				}
				return nil
			}
			err := WaitReady(context.Background(), ping, tc.attempts, time.Millisecond)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			if calls != tc.wantCall {
				t.Fatalf("calls = %d want %d", calls, tc.wantCall)
			}
			if err != nil && !strings.Contains(err.Error(), "refused") {
				t.Fatalf("last error not wrapped: %v", err)
			}
		})
	}
}

func TestWaitReady_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	ping := func(context.Context) error {
		calls++
		cancel()
		return errors.New("refused")
	}
	if err := WaitReady(ctx, ping, 5, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestOpen_BadURL(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "::not a url"}); err == nil || !strings.Contains(err.Error(), "parse url") {
		t.Fatalf("err = %v", err)
	}
}
