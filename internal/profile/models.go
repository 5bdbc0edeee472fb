package profile

import (
	"time"

	"profiled/pkg/domain"
)

// User is a profile record. Records are soft-deleted: IsDeleted flips once
// and the row is retained, so a deleted user's email can be reused by an
// active one.
type User struct {
	ID                domain.UserID `json:"id"`
	Name              string        `json:"name"`
	Email             string        `json:"email"`
	Bio               string        `json:"bio"`
	Company           string        `json:"company"`
	ProfilePicture    string        `json:"profilePicture,omitempty"`
	IsDeleted         bool          `json:"-"`
	LastProfileUpdate time.Time     `json:"lastProfileUpdate,omitzero"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// UpdateRequest is the raw update payload as decoded from the request.
// Absent fields stay nil; unknown fields are ignored by the decoder.
type UpdateRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Bio     *string `json:"bio"`
	Company *string `json:"company"`
}

// Update is a validated, normalized partial update. Only fields present in
// the input are set; ProfilePicture is attached by the handler when an
// upload was staged.
type Update struct {
	Name           *string
	Email          *string
	Bio            *string
	Company        *string
	ProfilePicture *string
}

// IsEmpty reports whether the update carries no fields at all.
func (u Update) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Bio == nil && u.Company == nil && u.ProfilePicture == nil
}

// computeDiff returns exactly the fields whose proposed value differs from
// the current record. Keys match the JSON field names so audit entries read
// the same as API payloads.
func computeDiff(current *User, upd Update) domain.ChangeSet {
	changes := domain.ChangeSet{}

	diffField := func(key, oldVal string, newVal *string) {
		if newVal != nil && *newVal != oldVal {
			changes[key] = domain.FieldChange{Old: oldVal, New: *newVal}
		}
	}
	diffField("name", current.Name, upd.Name)
	diffField("email", current.Email, upd.Email)
	diffField("bio", current.Bio, upd.Bio)
	diffField("company", current.Company, upd.Company)

	if upd.ProfilePicture != nil && *upd.ProfilePicture != current.ProfilePicture {
		// A never-set picture reads as null in the audit trail, not "".
		var old any
		if current.ProfilePicture != "" {
			old = current.ProfilePicture
		}
		changes["profilePicture"] = domain.FieldChange{Old: old, New: *upd.ProfilePicture}
	}

	return changes
}

// applyTo writes the update's fields onto u. Callers persist u afterwards.
func (upd Update) applyTo(u *User) {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Company != nil {
		u.Company = *upd.Company
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
}
