package log

import (
	"context"
	"log/slog"
)

type ctxKey string

// Context keys carried into log records.
const (
	RequestContextID ctxKey = "request_id"
	SessionContextID ctxKey = "session_id"
	UserContextID    ctxKey = "user_id"
	TurnContextID    ctxKey = "turn_id"
)

// WithRequestID stores the HTTP request ID in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestContextID, requestID)
}

// WithSessionID stores the analysis session ID in ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionContextID, sessionID)
}

// WithUserID stores the user ID in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserContextID, userID)
}

// WithTurnID stores the conversation turn ID in ctx.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, TurnContextID, turnID)
}

// LogCtxFromContext extracts the known IDs from ctx as slog attributes.
func LogCtxFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range []ctxKey{RequestContextID, SessionContextID, UserContextID, TurnContextID} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}

// FromContext returns logger enriched with the IDs found in ctx.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := LogCtxFromContext(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return logger.With(args...)
}
