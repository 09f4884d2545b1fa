package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/imagine-api/internal/api/shared"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
)

// TraceMiddleware adds a trace ID and a request-scoped logger to the request
// context. A valid X-Trace-ID header from the caller is reused; otherwise a new
// ID is generated. The ID in use is echoed in the response header.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := strings.TrimSpace(r.Header.Get(shared.TraceIDHeader))
			if !shared.ValidTraceID(traceID) {
				traceID = shared.NewTraceID()
			}

			attrs := []any{slog.String("trace_id", traceID)}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, slog.String("request_id", reqID))
			}
			log := base.With(attrs...)

			ctx := shared.WithTraceID(r.Context(), traceID)
			ctx = logger.WithLogger(ctx, log)

			w.Header().Set(shared.TraceIDHeader, traceID)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs one line per completed request using the logger that
// TraceMiddleware stored in the context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.FromContext(r.Context()).Log(r.Context(), level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)))
		}()

		next.ServeHTTP(ww, r)
	})
}
