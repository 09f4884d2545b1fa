package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	ctxWithTrace := SetTraceID(ctx)
	traceID := GetTraceID(ctxWithTrace)
	assert.Len(t, traceID, 32, "Expected trace ID length to be 32 hex characters")

	assert.Empty(t, GetTraceID(ctx), "Expected original context to remain unchanged")
}

func TestWithTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "caller-trace-1")
	assert.Equal(t, "caller-trace-1", GetTraceID(ctx))
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123) // Not a string

	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID when context has invalid type")
}

func TestNewTraceID(t *testing.T) {
	const iterations = 1000
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		id := NewTraceID()
		assert.Len(t, id, 32)
		_, err := hex.DecodeString(id)
		assert.NoError(t, err, "Expected valid hex string")
		assert.False(t, seen[id], "Expected all trace IDs to be unique")
		seen[id] = true
	}
}

func TestValidTraceID(t *testing.T) {
	assert.True(t, ValidTraceID(NewTraceID()))
	assert.True(t, ValidTraceID("req-1234_abcd"))
	assert.False(t, ValidTraceID(""))
	assert.False(t, ValidTraceID("short"))
	assert.False(t, ValidTraceID("has spaces in it"))
	assert.False(t, ValidTraceID("line\nbreak-injection"))
}
