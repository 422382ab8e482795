package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeConflict, "room busy", http.StatusConflict)

	assert.Equal(t, CodeConflict, err.Code)
	assert.Equal(t, "room busy", err.Message)
	assert.Equal(t, http.StatusConflict, err.StatusCode())
}

func TestInternal_KeepsCause(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Internal("internal error", originalErr)

	assert.Same(t, originalErr, errors.Unwrap(wrapped))
	assert.Equal(t, "database connection failed", wrapped.Cause())
	assert.Empty(t, Conflict("taken").Cause())
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Room not found"},
			expected: "NOT_FOUND: Room not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Room", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("taken"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode())
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "12345")

	assert.Equal(t, "Booking not found", err.Message)
	assert.Equal(t, "12345", err.Details["id"])
	assert.Equal(t, "Booking", err.Details["resource"])
}

func TestWithDetails(t *testing.T) {
	err := Validation("validation failed", nil).WithDetails(map[string]any{"startTime": "must be HH:MM"})

	assert.Equal(t, "must be HH:MM", err.Details["startTime"])
}

func TestAsAppError(t *testing.T) {
	t.Run("returns the same app error", func(t *testing.T) {
		appErr := NotFound("User")
		assert.Same(t, appErr, AsAppError(appErr))
	})

	t.Run("finds app error through wrapping", func(t *testing.T) {
		appErr := Conflict("taken")
		wrapped := fmt.Errorf("create booking: %w", appErr)

		assert.True(t, IsAppError(wrapped))
		assert.Same(t, appErr, AsAppError(wrapped))
		assert.True(t, IsCode(wrapped, CodeConflict))
	})

	t.Run("wraps plain errors as internal", func(t *testing.T) {
		regularErr := errors.New("regular error")
		result := AsAppError(regularErr)

		require.NotNil(t, result)
		assert.False(t, IsAppError(regularErr))
		assert.Equal(t, CodeInternal, result.Code)
		assert.Same(t, regularErr, result.Err)
	})
}
