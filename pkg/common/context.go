// Package common holds request-scoped helpers shared by the HTTP layer and handlers.
package common

import (
	"context"

	"lexivault/domain/core/valueobjects"
)

// ContextKey represents a context key type
type ContextKey string

const (
	ContextKeyUserID    ContextKey = "user_id"
	ContextKeyRequestID ContextKey = "request_id"
)

// WithUserID adds the authenticated user to context
func WithUserID(ctx context.Context, userID valueobjects.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// GetUserID extracts the authenticated user from context
func GetUserID(ctx context.Context) (valueobjects.UserID, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(valueobjects.UserID)
	return userID, ok && userID.Valid()
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}
