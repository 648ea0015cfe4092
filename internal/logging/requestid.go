// Package logging provides request ID generation and context propagation so
// log lines from the auth flow and the Raindrop gateway can be correlated
// per request.
package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// NewRequestID mints a fresh request identifier.
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID retrieves the request ID from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
