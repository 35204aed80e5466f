// Package net carries per-request identity through contexts. The request id
// lives under chi's key so chi's RequestID middleware and ours agree
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type operatorKey struct{}

// WithRequestID stores id as the request id. An empty id leaves ctx alone
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

// RequestID returns the request id, or "" outside a request
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// WithOperator records the authenticated operator
func WithOperator(ctx context.Context, operator string) context.Context {
	if operator == "" {
		return ctx
	}
	return context.WithValue(ctx, operatorKey{}, operator)
}

// Operator returns the authenticated operator, or "" when the route is open
func Operator(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey{}).(string)
	return op
}
