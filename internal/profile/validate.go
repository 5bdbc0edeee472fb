package profile

import (
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "profiled/pkg/domain-errors"
)

// ValidateUpdate checks each field present in req against the API contract
// and returns a normalized partial update. Validation stops at the first
// violation with a per-field message.
//
// Rules: name 2-50 chars, email valid address (lowercased), bio up to 500
// chars (empty allowed), company up to 100 chars (empty allowed). All fields
// are trimmed.
func ValidateUpdate(req UpdateRequest) (Update, error) {
	var upd Update

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !govalidator.StringLength(name, "2", "50") {
			return Update{}, dErrors.New(dErrors.CodeInvalidInput, "name must be between 2 and 50 characters")
		}
		upd.Name = &name
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !govalidator.IsEmail(email) {
			return Update{}, dErrors.New(dErrors.CodeInvalidInput, "email must be a valid email address")
		}
		upd.Email = &email
	}

	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		if !govalidator.StringLength(bio, "0", "500") {
			return Update{}, dErrors.New(dErrors.CodeInvalidInput, "bio must be at most 500 characters")
		}
		upd.Bio = &bio
	}

	if req.Company != nil {
		company := strings.TrimSpace(*req.Company)
		if !govalidator.StringLength(company, "0", "100") {
			return Update{}, dErrors.New(dErrors.CodeInvalidInput, "company must be at most 100 characters")
		}
		upd.Company = &company
	}

	return upd, nil
}
