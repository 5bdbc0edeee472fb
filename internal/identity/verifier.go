// Package identity resolves bearer tokens to active users.
package identity

import (
	"context"

	jwttoken "profiled/internal/jwt_token"
	"profiled/internal/platform/middleware"
	"profiled/internal/profile"
	"profiled/pkg/domain"
	dErrors "profiled/pkg/domain-errors"
)

// TokenValidator validates a raw token string and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// UserLookup fetches an active user record by ID.
type UserLookup interface {
	GetByID(ctx context.Context, id domain.UserID) (*profile.User, error)
}

// Verifier checks a bearer token and resolves it to an active (non-deleted)
// user. Every failure collapses into the same CodeUnauthorized error so the
// response never reveals whether a token was malformed, expired, or pointed
// at a deleted account.
type Verifier struct {
	tokens TokenValidator
	users  UserLookup
}

func NewVerifier(tokens TokenValidator, users UserLookup) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

var errUnauthorized = dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")

func (v *Verifier) Verify(ctx context.Context, token string) (middleware.Identity, error) {
	claims, err := v.tokens.ValidateToken(token)
	if err != nil {
		return middleware.Identity{}, errUnauthorized
	}

	userID, err := domain.ParseUserID(claims.UserID)
	if err != nil {
		return middleware.Identity{}, errUnauthorized
	}

	user, err := v.users.GetByID(ctx, userID)
	if err != nil {
		// Absent and soft-deleted users must look the same as a bad token.
		return middleware.Identity{}, errUnauthorized
	}

	return middleware.Identity{UserID: user.ID, Email: user.Email}, nil
}
