package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"profiled/internal/ratelimit"
	dErrors "profiled/pkg/domain-errors"
)

// Envelope is the uniform response shape. Every endpoint, success or failure,
// returns this structure.
type Envelope struct {
	Success           bool       `json:"success"`
	Message           string     `json:"message,omitempty"`
	Data              any        `json:"data,omitempty"`
	NextAllowedUpdate *time.Time `json:"nextAllowedUpdate,omitempty"`
}

// WriteJSON writes a success envelope with the given status.
func WriteJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteError translates domain errors to HTTP responses. Internal error
// details never reach the client; MessageOf substitutes a generic message.
func WriteError(w http.ResponseWriter, err error) {
	var rlErr *ratelimit.Error
	if errors.As(err, &rlErr) {
		next := rlErr.NextAllowed
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(Envelope{
			Success:           false,
			Message:           "Please wait 5 minutes between profile updates",
			NextAllowedUpdate: &next,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(dErrors.CodeOf(err)))
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Message: dErrors.MessageOf(err),
	})
}
