package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load product: %w", ErrNotFound), http.StatusNotFound},
		{"duplicate user", ErrUserAlreadyExists, http.StatusConflict},
		{"locked", ErrAccountLocked, http.StatusForbidden},
		{"credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"sold twice", ErrAlreadySold, http.StatusConflict},
		{"validation", NewValidation("Validation failed", map[string]string{"title": "Title is required"}), http.StatusBadRequest},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Resource not found", Message(fmt.Errorf("get store: %w", ErrNotFound)))
	assert.Equal(t, "Limit reached: store allows 1 admin users",
		Message(fmt.Errorf("%w: store allows 1 admin users", ErrLimitReached)))
	assert.Equal(t, "Validation failed", Message(NewValidation("Validation failed", nil)))
}

func TestValidationErrorString(t *testing.T) {
	err := NewValidation("Validation failed", map[string]string{
		"title": "Title is required",
		"price": "Price must be at least 0.01",
	})
	assert.Equal(t, "Validation failed (price: Price must be at least 0.01; title: Title is required)", err.Error())
}
