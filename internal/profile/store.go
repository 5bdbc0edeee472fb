package profile

import (
	"context"
	"time"

	"profiled/pkg/domain"
)

// Store owns user records. Implementations return sentinel errors
// (pkg/platform/sentinel); the service translates them into coded domain
// errors.
type Store interface {
	// GetByID returns the active user record, or sentinel.ErrNotFound when
	// the record is absent or soft-deleted.
	GetByID(ctx context.Context, id domain.UserID) (*User, error)

	// ApplyUpdate atomically loads the current record, enforces email
	// uniqueness over active users, computes the field diff, and persists
	// the update with a fresh LastProfileUpdate. It returns the updated
	// record together with the diff for the audit recorder.
	//
	// Errors: sentinel.ErrNotFound (absent/deleted), sentinel.ErrAlreadyUsed
	// (email held by another active user), sentinel.ErrNoChanges (empty
	// diff; deliberately rejected so no empty audit entry is ever written).
	//
	// When called inside a TxRunner transaction the read, conflict check and
	// write all happen under that transaction, so concurrent updates to the
	// same user serialize at the storage layer.
	ApplyUpdate(ctx context.Context, id domain.UserID, upd Update) (*User, domain.ChangeSet, error)

	// SoftDelete marks the record deleted. Deleting an absent or
	// already-deleted record returns sentinel.ErrNotFound: delete is a
	// one-shot transition.
	SoftDelete(ctx context.Context, id domain.UserID) error

	// LastProfileUpdate returns the user's last successful profile update
	// time (zero when the user never updated). Used by the rate limiter.
	LastProfileUpdate(ctx context.Context, id domain.UserID) (time.Time, error)

	// Create inserts a new user record. Profile creation happens outside
	// the HTTP surface (registration is a separate system); this exists for
	// seeding and tests.
	Create(ctx context.Context, u *User) error
}
