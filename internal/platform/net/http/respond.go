package http

import (
	"encoding/json"
	"net/http"

	perr "flexcode/internal/platform/errors"
	pnet "flexcode/internal/platform/net"
)

// Envelope wraps every JSON body, success or failure
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Response is what return-style handlers produce. An error Body renders as
// a failure envelope with the status its code maps to
type Response struct {
	Status int
	Body   any
	Header http.Header
}

// OK is a 200 with data
func OK(data any) Response { return Response{Status: http.StatusOK, Body: data} }

// Error is a failure response
func Error(err error) Response { return Response{Body: err} }

// Handle adapts a return-style handler
func Handle(h func(*http.Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { h(r).Write(w, r) }
}

// Fail writes err as a failure envelope
func Fail(w http.ResponseWriter, r *http.Request, err error) { Error(err).Write(w, r) }

// Write renders the response
func (resp Response) Write(w http.ResponseWriter, r *http.Request) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if resp.Status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	env := Envelope{StatusCode: resp.Status, RequestID: pnet.RequestID(r.Context())}
	if err, ok := resp.Body.(error); ok {
		wire := perr.WireFrom(err)
		env.StatusCode = wire.Code.HTTPStatus()
		env.Code, env.Error, env.Field = wire.Code, wire.Message, wire.Field
	} else {
		env.Data = resp.Body
	}
	if env.StatusCode == 0 {
		env.StatusCode = http.StatusOK
	}
	env.Status = http.StatusText(env.StatusCode)
	JSON(w, env.StatusCode, env)
}

// JSON writes v with status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
