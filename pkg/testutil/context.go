package testutil

import (
	"context"
	"net/http"

	"profiled/internal/platform/middleware"
	"profiled/pkg/domain"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := domain.ParseUserID(userID)
	if err != nil {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, parsed)
	return req.WithContext(ctx)
}

// WithIdentity adds both user ID and email to the request context, the
// typical state for an authenticated request. Invalid IDs are silently
// ignored.
func WithIdentity(req *http.Request, userID domain.UserID, email string) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyEmail, email)
	return req.WithContext(ctx)
}
