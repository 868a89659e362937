package handlers

import (
	"context"
)

// Context keys
type contextKey string

const (
	// CallerKey is the key for the authenticated caller address in the context
	CallerKey contextKey = "caller"
)

// NewContextWithCaller adds the caller address to the context
func NewContextWithCaller(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, CallerKey, address)
}

// CallerFromContext extracts the caller address from the context
func CallerFromContext(ctx context.Context) (string, bool) {
	address, ok := ctx.Value(CallerKey).(string)
	return address, ok && address != ""
}
