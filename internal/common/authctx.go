package common

import "context"

type ctxKey string

const (
	userIDKey  ctxKey = "auth/user-id"
	userEmlKey ctxKey = "auth/user-email"
)

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserEmail stores the authenticated user's email on the context.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmlKey, email)
}

// UserEmail extracts the authenticated user's email from the context if present.
func UserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userEmlKey).(string)
	return email, ok && email != ""
}
