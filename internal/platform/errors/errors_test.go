package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Format(t *testing.T) {
	cause := stderrs.New("dial tcp: refused")
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"bare", New(ErrorCodeNotFound, "no such code"), "no such code"},
		{"wrapped", Wrap(cause, ErrorCodeUnavailable, "convert"), "convert: dial tcp: refused"},
		{"with op", WithOp(Wrap(cause, ErrorCodeUnavailable, "convert"), "orchestrator"), "orchestrator: convert: dial tcp: refused"},
		{"formatted", Wrapf(cause, ErrorCodeDB, "claim %s", "x:1"), "claim x:1: dial tcp: refused"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Fatalf("Error() = %q, want %q", got, tc.want)
			}
		})
	}

	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil render = %q", nilErr.Error())
	}
}

func TestCodeOf_ThroughForeignWrap(t *testing.T) {
	inner := InvalidCodef("code %s rejected", "ABC")
	err := fmt.Errorf("pipeline: %w", inner)
	if CodeOf(err) != ErrorCodeInvalidCode || !IsCode(err, ErrorCodeInvalidCode) {
		t.Fatalf("code = %v", CodeOf(err))
	}
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown || CodeOf(nil) != ErrorCodeUnknown {
		t.Fatal("foreign errors should be unknown")
	}
}

func TestWithField_CopiesAndIgnoresForeign(t *testing.T) {
	base := Newf(ErrorCodeValidation, "bad")
	tagged := WithField(base, "text")
	if e, _ := As(tagged); e.Field() != "text" {
		t.Fatalf("field = %q", e.Field())
	}
	if e, _ := As(base); e.Field() != "" {
		t.Fatal("original mutated")
	}

	plain := stderrs.New("x")
	if WithField(plain, "f") != plain || WithOp(plain, "op") != plain {
		t.Fatal("foreign error should pass through")
	}
	if e, _ := As(WithOp(base, "bind")); e.Op() != "bind" {
		t.Fatalf("op = %q", e.Op())
	}
}

func TestRoot(t *testing.T) {
	cause := stderrs.New("root cause")
	err := fmt.Errorf("outer: %w", Wrap(cause, ErrorCodeDB, "mid"))
	if Root(err) != cause {
		t.Fatalf("root = %v", Root(err))
	}
	if Root(nil) != nil {
		t.Fatal("root of nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrorCodeUnknown:         http.StatusInternalServerError,
		ErrorCodePanic:           http.StatusInternalServerError,
		ErrorCodeDB:              http.StatusInternalServerError,
		ErrorCodeValidation:      http.StatusBadRequest,
		ErrorCodeJSON:            http.StatusBadRequest,
		ErrorCodeUnauthorized:    http.StatusUnauthorized,
		ErrorCodeForbidden:       http.StatusForbidden,
		ErrorCodeNotFound:        http.StatusNotFound,
		ErrorCodeConflict:        http.StatusConflict,
		ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
		ErrorCodeInvalidCode:     http.StatusUnprocessableEntity,
		ErrorCodeUnsupportedPair: http.StatusUnprocessableEntity,
		ErrorCodeTooManyRequests: http.StatusTooManyRequests,
		ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	}
	for code, want := range cases {
		if got := HTTPStatus(New(code, "x")); got != want {
			t.Fatalf("%v -> %d, want %d", code, got, want)
		}
	}
}

func TestWireFrom_HidesCause(t *testing.T) {
	err := WithField(Wrap(stderrs.New("password=hunter2"), ErrorCodeDB, "claim failed"), "message_id")
	w := WireFrom(err)
	if w.Code != ErrorCodeDB || w.Message != "claim failed" || w.Field != "message_id" {
		t.Fatalf("wire = %+v", w)
	}
	if (WireFrom(nil) != Wire{}) {
		t.Fatal("nil should render empty")
	}
	if w := WireFrom(stderrs.New("boom")); w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("foreign wire = %+v", w)
	}
}

func TestCodeString(t *testing.T) {
	if ErrorCodeUnsupportedPair.String() != "unsupported_pair" {
		t.Fatalf("name = %q", ErrorCodeUnsupportedPair.String())
	}
	if ErrorCode(999).String() != "code(999)" {
		t.Fatalf("unknown = %q", ErrorCode(999).String())
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", Unavailablef("upstream 503"), true},
		{"rate limited", TooManyRequestsf("slow down"), true},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"canceled", Wrap(context.Canceled, ErrorCodeUnavailable, "stopping"), false},
		{"invalid code", InvalidCodef("rejected"), false},
		{"unsupported pair", UnsupportedPairf("no map"), false},
		{"unauthorized", Unauthorizedf("bad key"), false},
		{"validation timeout", Wrap(context.DeadlineExceeded, ErrorCodeValidation, "x"), false},
		{"plain", stderrs.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Retryable(tc.err); got != tc.want {
				t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
