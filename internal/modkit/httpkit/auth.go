package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "flexcode/internal/platform/errors"
	pnet "flexcode/internal/platform/net"
)

// TokenFunc maps a bearer token to the operator it belongs to
type TokenFunc func(token string) (operator string, ok bool)

// StaticToken accepts exactly secret, compared in constant time. An empty
// secret accepts nothing
func StaticToken(operator, secret string) TokenFunc {
	want := []byte(secret)
	return func(token string) (string, bool) {
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			return "", false
		}
		return operator, true
	}
}

// Port checks the Authorization header against a TokenFunc
type Port struct {
	resolve TokenFunc
}

// NewPortFunc builds a Port
func NewPortFunc(fn TokenFunc) *Port { return &Port{resolve: fn} }

// Parse returns the operator behind the request's bearer token
func (p *Port) Parse(r *http.Request) (string, error) {
	token, err := BearerToken(r)
	if err != nil {
		return "", err
	}
	if p == nil || p.resolve == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	op, ok := p.resolve(token)
	if !ok {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return op, nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is case-insensitive
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return token, nil
}

// Operator is the authenticated operator, or an Unauthorized error on an
// open route
func Operator(r *http.Request) (string, error) {
	if op := pnet.Operator(r.Context()); op != "" {
		return op, nil
	}
	return "", perr.Unauthorizedf("no operator on request")
}
