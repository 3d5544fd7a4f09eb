// Package logtrace carries request identity through the context so log lines
// and error responses can be correlated with a single request.
package logtrace

import (
	"context"
	"os"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id carried by ctx, or "" when
// there is none.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// IsTraceEnabled reports whether verbose route tracing was requested through
// the environment.
func IsTraceEnabled() bool {
	return os.Getenv("COURIER_TRACE") != ""
}
