package middleware

import (
	"net/http"
	"runtime/debug"

	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"
	phttp "flexcode/internal/platform/net/http"
)

// Recover answers a panicking handler with a 500 envelope and logs the
// stack. http.ErrAbortHandler is re-raised so net/http drops the connection
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Str("stack", string(debug.Stack())).
				Msg("handler panicked")
			phttp.Fail(w, r, perr.PanicErrf("internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
