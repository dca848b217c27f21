// Package tracing wires request correlation and distributed spans around
// KV store operations, grounded in the span-per-roundtrip pattern used by
// pushsync/pusher.go's chunk.sent span (github.com/opentracing/opentracing-go)
// and the request-id idiom used throughout the pack's API layers
// (github.com/google/uuid). The fabric has no Non-goal excluding tracing,
// so this ambient concern is carried even though spec.md never names it
// directly.
package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
)

type correlationKey struct{}

// WithRequestID attaches a fresh correlation id to ctx if it doesn't
// already carry one, returning the (possibly unchanged) context and the
// id now in effect.
func WithRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return context.WithValue(ctx, correlationKey{}, id), id
}

// RequestID returns the correlation id carried by ctx, or "" if none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// StartSpan starts a child span named op under ctx's active span (if any),
// tagging it with the ambient correlation id, and returns the span-bearing
// context plus the span itself. Callers must call span.Finish().
func StartSpan(ctx context.Context, op string) (context.Context, opentracing.Span) {
	ctx, reqID := WithRequestID(ctx)
	span, spanCtx := opentracing.StartSpanFromContext(ctx, op)
	span.SetTag("request_id", reqID)
	return spanCtx, span
}
