package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/canvas-market/api/internal/platform/requestctx"
)

// RequestLogger attaches a request-scoped logger to the context and emits one
// structured line per completed request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			scoped := logger.With(
				zap.String("requestId", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			if traceID := requestctx.TraceID(r.Context()); traceID != "" {
				scoped = scoped.With(zap.String("traceId", traceID))
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(requestctx.WithLogger(r.Context(), scoped)))

			scoped.Info("http.request.completed",
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
