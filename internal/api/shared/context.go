package shared

import (
	"context"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type for values this package stores in a context.
type ContextKey string

const (
	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader carries a caller-supplied trace ID and echoes the one in use.
	TraceIDHeader = "X-Trace-ID"
)

// Accepted caller trace IDs: 8 to 64 characters of [A-Za-z0-9-_].
var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// NewTraceID returns a random 32 character hex trace ID.
func NewTraceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// ValidTraceID reports whether a caller-supplied trace ID can be reused.
func ValidTraceID(id string) bool {
	return traceIDPattern.MatchString(strings.TrimSpace(id))
}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// SetTraceID adds a freshly generated trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, NewTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
