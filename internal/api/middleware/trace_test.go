package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/imagine-api/internal/api/shared"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	log, buf := logger.NewTestLogger(t)

	var seenTrace string
	handler := TraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("generates trace id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

		require.Len(t, seenTrace, 32)
		assert.Equal(t, seenTrace, w.Header().Get(shared.TraceIDHeader))
		logger.AssertLogField(t, buf, "trace_id", seenTrace)
	})

	t.Run("reuses caller trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.Header.Set(shared.TraceIDHeader, "caller-trace-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "caller-trace-42", seenTrace)
		assert.Equal(t, "caller-trace-42", w.Header().Get(shared.TraceIDHeader))
	})

	t.Run("rejects malformed caller trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.Header.Set(shared.TraceIDHeader, "bad id")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, "bad id", seenTrace)
		assert.Len(t, seenTrace, 32)
	})
}

func TestTraceMiddlewareIncludesRequestID(t *testing.T) {
	log, buf := logger.NewTestLogger(t)

	handler := chimw.RequestID(TraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("inside handler")
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	logger.AssertLogContains(t, buf, "request_id")
}

func TestRequestLogger(t *testing.T) {
	log, buf := logger.NewTestLogger(t)

	handler := TraceMiddleware(log)(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/imagine", nil))

	logger.AssertLogContains(t, buf, "request completed")
	logger.AssertLogField(t, buf, "status", float64(http.StatusTeapot))
	logger.AssertLogField(t, buf, "bytes", float64(len("short and stout")))
}
