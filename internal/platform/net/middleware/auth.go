package middleware

import (
	"net/http"

	perr "flexcode/internal/platform/errors"
	pnet "flexcode/internal/platform/net"
	phttp "flexcode/internal/platform/net/http"
)

// AuthPort resolves the operator behind a request
type AuthPort interface {
	Parse(r *http.Request) (operator string, err error)
}

// Auth rejects requests p cannot resolve and records the operator on the
// rest. A nil port leaves the routes open
func Auth(p AuthPort) func(http.Handler) http.Handler {
	if p == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, err := p.Parse(r)
			if err != nil {
				if perr.CodeOf(err) == perr.ErrorCodeUnknown {
					err = perr.Wrap(err, perr.ErrorCodeUnauthorized, "unauthorized")
				}
				phttp.Fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithOperator(r.Context(), op)))
		})
	}
}
