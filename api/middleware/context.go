package middleware

import (
	"context"

	"github.com/angelmondragon/pixcheckout/internal/roles"
)

type contextKey int

const (
	identityKey contextKey = iota
	requestIDKey
)

// IdentityFromContext returns the caller identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *roles.Identity {
	if ctx == nil {
		return nil
	}
	id, _ := ctx.Value(identityKey).(*roles.Identity)
	return id
}

// WithIdentity attaches the verified caller identity.
func WithIdentity(ctx context.Context, id *roles.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey, id)
}

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
