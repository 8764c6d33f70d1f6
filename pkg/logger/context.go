package logger

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type traceKey struct{}

const maxTraceIDLen = 64

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceID returns the request's trace id, or "" outside a request.
func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceKey{}).(string); ok {
		return id
	}
	return ""
}

// ResolveTraceID keeps an upstream id that is short and printable with no
// separators, and mints a uuid otherwise.
func ResolveTraceID(upstream string) string {
	if upstream == "" || len(upstream) > maxTraceIDLen {
		return uuid.NewString()
	}
	if strings.IndexFunc(upstream, func(r rune) bool {
		return r <= ' ' || r > '~' || r == ','
	}) >= 0 {
		return uuid.NewString()
	}
	return upstream
}
