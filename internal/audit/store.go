package audit

import (
	"context"
	"time"

	"profiled/pkg/domain"
)

// Store persists audit entries. Append-only; entries are never mutated.
type Store interface {
	// Append writes one entry. Inside a TxRunner transaction the write joins
	// it, so the entry commits or rolls back with the profile change.
	Append(ctx context.Context, entry Entry) error

	// ListByUser returns the requested page of the user's entries plus the
	// total count across all pages.
	ListByUser(ctx context.Context, userID domain.UserID, params ListParams) ([]Entry, int, error)

	// DeleteOlderThan removes entries older than cutoff. Retention is a
	// design choice, not a contractual requirement; callers treat failures
	// as non-fatal.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
