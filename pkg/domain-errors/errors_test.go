package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatching(t *testing.T) {
	t.Run("errors.Is matches by code", func(t *testing.T) {
		err := New(CodeNotFound, "user not found")
		assert.ErrorIs(t, err, New(CodeNotFound, "user not found"))
		assert.ErrorIs(t, err, &Error{Code: CodeNotFound})
		assert.NotErrorIs(t, err, New(CodeConflict, "user not found"))
		assert.NotErrorIs(t, err, New(CodeNotFound, "different message"))
	})

	t.Run("Is inspects the wrap chain", func(t *testing.T) {
		inner := New(CodeConflict, "email already exists")
		wrapped := fmt.Errorf("update failed: %w", inner)

		assert.True(t, Is(wrapped, CodeConflict))
		assert.False(t, Is(wrapped, CodeNotFound))
		assert.False(t, Is(errors.New("plain"), CodeConflict))
	})

	t.Run("Wrap preserves the underlying error", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "storage failure")

		require.ErrorIs(t, err, cause)
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidInput, CodeOf(New(CodeInvalidInput, "bad")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("untagged")))
	assert.Equal(t, CodeTimeout, CodeOf(fmt.Errorf("outer: %w", New(CodeTimeout, "slow"))))
}

func TestMessageOf(t *testing.T) {
	t.Run("surfaces caller-facing messages", func(t *testing.T) {
		assert.Equal(t, "no changes detected", MessageOf(New(CodeNoChanges, "no changes detected")))
	})

	t.Run("hides internal detail", func(t *testing.T) {
		assert.Equal(t, "internal server error", MessageOf(Wrap(errors.New("pq: deadlock"), CodeInternal, "storage failure")))
		assert.Equal(t, "internal server error", MessageOf(errors.New("raw failure")))
	})
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeConflict, http.StatusBadRequest},
		{CodeNoChanges, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, ToHTTPStatus(tt.code), "code %s", tt.code)
	}
}
