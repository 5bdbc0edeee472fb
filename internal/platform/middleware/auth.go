package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"profiled/pkg/domain"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID domain.UserID
	Email  string
}

// IdentityVerifier resolves a bearer token to an active user identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type contextKeyUserID struct{}
type contextKeyEmail struct{}

// ContextKeyUserID is exported for use in handler tests.
var (
	ContextKeyUserID = contextKeyUserID{}
	ContextKeyEmail  = contextKeyEmail{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(domain.UserID)
	return id, ok
}

// GetEmail retrieves the authenticated user's email from the context.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(ContextKeyEmail).(string)
	return email
}

// RequireAuth rejects requests without a valid bearer token for an active
// user. Every failure mode (missing header, bad token, expired token,
// unknown or deleted user) produces the same 401 body so callers cannot
// probe which accounts exist.
func RequireAuth(verifier IdentityVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized - missing bearer token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			identity, err := verifier.Verify(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - token rejected",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, identity.UserID)
			ctx = context.WithValue(ctx, ContextKeyEmail, identity.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"message":"invalid or expired token"}`))
}
