package domain

import (
	"github.com/google/uuid"

	dErrors "profiled/pkg/domain-errors"
)

// UserID identifies a profile owner. IDs are opaque; construct via NewUserID
// or ParseUserID at trust boundaries so handlers never pass raw strings down.
type UserID uuid.UUID

// AuditLogID identifies a single immutable audit log entry.
type AuditLogID uuid.UUID

// NewUserID returns a fresh random user ID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// NewAuditLogID returns a fresh random audit log entry ID.
func NewAuditLogID() AuditLogID {
	return AuditLogID(uuid.New())
}

// ParseUserID constructs a UserID from external input. The nil UUID is
// rejected: no real account ever has it.
//
// Errors: returns CodeUnauthorized for malformed input; user IDs only ever
// arrive inside verified tokens, so a bad one means a bad credential.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return UserID(uuid.Nil), dErrors.New(dErrors.CodeUnauthorized, "malformed user id")
	}
	return UserID(u), nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText keeps IDs rendering as UUID strings in JSON and logs; defined
// types do not inherit the underlying uuid.UUID methods.
func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id AuditLogID) String() string { return uuid.UUID(id).String() }
func (id AuditLogID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id AuditLogID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *AuditLogID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
