// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies beyond the authz value types.
package ctxutil

import (
	"context"

	"github.com/example/mes/internal/core/authz"
)

// CallerKey is the context key for the authenticated caller.
type CallerKey struct{}

// RequestIDKey is the context key for the request id.
type RequestIDKey struct{}

// WithCaller returns a context carrying the authenticated caller.
func WithCaller(ctx context.Context, caller authz.Caller) context.Context {
	return context.WithValue(ctx, CallerKey{}, caller)
}

// CallerFromContext returns the caller from context and whether one was set.
func CallerFromContext(ctx context.Context) (authz.Caller, bool) {
	c, ok := ctx.Value(CallerKey{}).(authz.Caller)
	return c, ok
}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, id)
}

// RequestIDFromContext returns the request id, or empty string if not set.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey{}).(string); ok {
		return v
	}
	return ""
}
