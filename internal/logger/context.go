package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// FromCtx returns the global logger tagged with the request id, if any.
func FromCtx(ctx context.Context) *zap.Logger {
	if reqID := RequestIDFrom(ctx); reqID != "" {
		return L().With(zap.String("request_id", reqID))
	}
	return L()
}
