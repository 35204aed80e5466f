// Package httpkit is what service modules use to expose endpoints. Handlers
// return (value, error) and never touch the ResponseWriter; the kit binds
// and validates bodies, wraps results in the envelope, and records every
// route it mounts for the API document
package httpkit

import (
	"net/http"

	phttp "flexcode/internal/platform/net/http"
	"flexcode/internal/platform/net/http/bind"
)

type (
	// Envelope is the response body shape
	Envelope = phttp.Envelope
	// Response lets a handler pick status and headers
	Response = phttp.Response
	// Handler is a raw handler
	Handler = phttp.Handler
	// Router is the routing seam
	Router = phttp.Router
)

// OK is a 200 with data
func OK(data any) Response { return phttp.OK(data) }

// Error is a failure response
func Error(err error) Response { return phttp.Error(err) }

// Call adapts a bodyless handler
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response { return respond(fn(r)) })
}

// JSON adapts a handler taking a bound and validated T
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		return respond(fn(r, in))
	})
}

func respond(out any, err error) Response {
	switch {
	case err != nil:
		return Error(err)
	case out == nil:
		return OK(nil)
	}
	if resp, ok := out.(Response); ok {
		return resp
	}
	return OK(out)
}
