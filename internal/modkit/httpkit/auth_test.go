package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	perr "flexcode/internal/platform/errors"
	pnet "flexcode/internal/platform/net"
)

func withAuth(h string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	if h != "" {
		r.Header.Set("Authorization", h)
	}
	return r
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header, want string
		ok           bool
	}{
		{"Bearer s3cret", "s3cret", true},
		{"bearer   s3cret ", "s3cret", true},
		{"BEARER s3cret", "s3cret", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"Basic dXNlcg==", "", false},
		{"Bearers3cret", "", false},
	}
	for _, tc := range cases {
		got, err := BearerToken(withAuth(tc.header))
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("%q -> %q, %v", tc.header, got, err)
		}
		if err != nil && !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
			t.Fatalf("%q -> code %v", tc.header, perr.CodeOf(err))
		}
	}
}

func TestPort_Parse(t *testing.T) {
	p := NewPortFunc(StaticToken("admin", "s3cret"))
	if op, err := p.Parse(withAuth("Bearer s3cret")); err != nil || op != "admin" {
		t.Fatalf("valid -> %q, %v", op, err)
	}
	for _, h := range []string{"Bearer wrong", "Bearer s3cre", ""} {
		if _, err := p.Parse(withAuth(h)); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
			t.Fatalf("%q -> %v", h, err)
		}
	}

	var nilPort *Port
	if _, err := nilPort.Parse(withAuth("Bearer s3cret")); err == nil {
		t.Fatal("nil port accepted a token")
	}
	if _, err := NewPortFunc(StaticToken("admin", "")).Parse(withAuth("Bearer x")); err == nil {
		t.Fatal("empty secret accepted a token")
	}
}

func TestOperator(t *testing.T) {
	r := withAuth("")
	if _, err := Operator(r); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("open route -> %v", err)
	}
	r = r.WithContext(pnet.WithOperator(r.Context(), "admin"))
	if op, err := Operator(r); err != nil || op != "admin" {
		t.Fatalf("operator = %q, %v", op, err)
	}
}
