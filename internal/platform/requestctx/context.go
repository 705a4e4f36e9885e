package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerContextKey contextKey = "github.com/canvas-market/api/internal/platform/requestctx/logger"
	traceContextKey  contextKey = "github.com/canvas-market/api/internal/platform/requestctx/trace"
	userContextKey   contextKey = "github.com/canvas-market/api/internal/platform/requestctx/user"
)

var noopLogger = zap.NewNop()

// TraceInfo captures trace metadata propagated through request context.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger retrieves the zap logger from context or returns a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// WithTrace stores the trace metadata on the context.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceContextKey, info)
}

// TraceID extracts the trace identifier from context when present.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	if !ok {
		return ""
	}
	return info.TraceID
}

// WithUserID stores the authenticated user id resolved by the upstream
// gateway.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userContextKey, userID)
}

// UserID returns the authenticated user id, or "" when absent.
func UserID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(userContextKey).(string); ok {
		return id
	}
	return ""
}
