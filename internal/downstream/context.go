package downstream

import "context"

// contextKey is the type of context keys owned by this package.
type contextKey string

const (
	ctxKeyRequestID      contextKey = "request_id"
	ctxKeyIdempotencyKey contextKey = "idempotency_key"
)

// WithRequestID stores the inbound correlation id so that it is forwarded
// downstream as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFrom returns the id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyRequestID).(string)
	return s
}

// WithIdempotencyKey stores a validated Idempotency-Key so that it is
// forwarded downstream.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyIdempotencyKey, key)
}

// IdempotencyKeyFrom returns the key stored by WithIdempotencyKey, or "".
func IdempotencyKeyFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyIdempotencyKey).(string)
	return s
}
