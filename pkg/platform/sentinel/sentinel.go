package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors without
// depending on a particular backend.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist (or is soft-deleted, for reads that
//   only see active records)
// - ErrAlreadyUsed: a unique value (email) is held by another active record
// - ErrNoChanges: a proposed update matches the current record exactly
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrNoChanges   = errors.New("no changes")
	ErrUnavailable = errors.New("unavailable")
)
