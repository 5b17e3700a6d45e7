package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/prayagtech/storefront/pkg/enums"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxRole      contextKey = "actor_role"
	ctxSessionID contextKey = "session_id"
)

// UserIDFromContext returns the authenticated user's id, or nil for guests.
func UserIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

// RoleFromContext returns the authenticated user's role, empty for guests.
func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
		return v
	}
	return ""
}

// SessionIDFromContext returns the session jti used for logout.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithActor injects the authenticated identity into the context.
func WithActor(ctx context.Context, userID uuid.UUID, role enums.UserRole, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
