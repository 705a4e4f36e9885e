package observability

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/canvas-market/api/internal/platform/requestctx"
)

var tracer = otel.Tracer("github.com/canvas-market/api/internal/platform/observability")

// TraceMiddleware starts a server span per request and stores the trace
// metadata on the request context.
func TraceMiddleware(next http.Handler) http.Handler {
	if next == nil {
		next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), spanName(r), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
			attribute.String("http.host", r.Host),
		)

		spanCtx := span.SpanContext()
		ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{
			TraceID: spanCtx.TraceID().String(),
			SpanID:  spanCtx.SpanID().String(),
			Sampled: spanCtx.IsSampled(),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func spanName(r *http.Request) string {
	if r == nil || r.URL == nil {
		return "http.request"
	}
	return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
}
