package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

// ContextKeyAddress is the context key for the authenticated wallet address
const ContextKeyAddress contextKey = "wallet_address"

// WithAddress adds the authenticated wallet address to the context
func WithAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, ContextKeyAddress, address)
}

// AddressFromContext retrieves the authenticated wallet address from the context
func AddressFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(ContextKeyAddress).(string)
	return addr, ok
}
