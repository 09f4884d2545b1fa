package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/imagine-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, ctx context.Context) (context.Context, *strings.Builder) {
	t.Helper()
	var buf strings.Builder
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger.WithLogger(ctx, l), &buf
}

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		data         interface{}
		expectedBody string
	}{
		{
			name:         "object",
			status:       http.StatusOK,
			data:         map[string]interface{}{"running": true, "queue_length": 2},
			expectedBody: `{"queue_length":2,"running":true}`,
		},
		{
			name:         "empty object",
			status:       http.StatusAccepted,
			data:         map[string]interface{}{},
			expectedBody: `{}`,
		},
		{
			name:         "nil",
			status:       http.StatusOK,
			data:         nil,
			expectedBody: `null`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			RespondWithJSON(w, req, tc.status, tc.data)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedBody+"\n", w.Body.String())
		})
	}
}

func TestRespondWithJSONEncodingError(t *testing.T) {
	ctx, logs := captureLogs(t, context.Background())
	req := httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	ctx := WithTraceID(context.Background(), "test-trace-id")
	req := httptest.NewRequest(http.MethodGet, "/jobs/x", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusBadRequest, "Invalid job ID")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "Invalid job ID", response["error"])
	assert.Equal(t, "test-trace-id", response["trace_id"])
	assert.NotContains(t, response, "Code")
}

func TestRespondWithErrorNoTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusNotFound, "Job not found")

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Job not found", response.Error)
	assert.Empty(t, response.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name             string
		statusCode       int
		message          string
		err              error
		expectedLogLevel string
		elevateLogLevel  bool
	}{
		{
			name:             "server error",
			statusCode:       http.StatusInternalServerError,
			message:          "Failed to load job history",
			err:              errors.New("dial postgres://imagine:secret@db:5432/imagine"),
			expectedLogLevel: "ERROR",
		},
		{
			name:             "client error",
			statusCode:       http.StatusBadRequest,
			message:          "Invalid request format",
			err:              errors.New("invalid character"),
			expectedLogLevel: "DEBUG",
		},
		{
			name:             "client error elevated",
			statusCode:       http.StatusBadRequest,
			message:          "Invalid request format",
			err:              errors.New("invalid character"),
			expectedLogLevel: "WARN",
			elevateLogLevel:  true,
		},
		{
			name:             "rate limited",
			statusCode:       http.StatusTooManyRequests,
			message:          "Too many requests",
			err:              errors.New("limit"),
			expectedLogLevel: "WARN",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, logs := captureLogs(t, WithTraceID(context.Background(), "test-trace-id"))
			req := httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
			w := httptest.NewRecorder()

			var opts []ResponseOption
			if tc.elevateLogLevel {
				opts = append(opts, WithElevatedLogLevel())
			}
			RespondWithErrorAndLog(w, req, tc.statusCode, tc.message, tc.err, opts...)

			assert.Equal(t, tc.statusCode, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.message, response.Error)
			assert.Equal(t, "test-trace-id", response.TraceID)
			assert.NotContains(t, w.Body.String(), tc.err.Error(), "Raw errors never reach the client")

			out := logs.String()
			assert.Contains(t, out, "level="+tc.expectedLogLevel)
			assert.Contains(t, out, "trace_id=test-trace-id")
			assert.Contains(t, out, "error_type=")
			assert.NotContains(t, out, "imagine:secret", "Credentials are redacted from logs")
		})
	}
}
