package errs

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrBadRequest          = errors.New("Bad request")
	ErrNotFound            = errors.New("Resource not found")
	ErrConflict            = errors.New("Conflicting record found")
	ErrUserAlreadyExists   = errors.New("User already exists with this email or phone number")
	ErrUnauthorized        = errors.New("Access denied. No token provided.")
	ErrInvalidToken        = errors.New("Invalid or expired token")
	ErrForbidden           = errors.New("Insufficient permissions")
	ErrInvalidCredentials  = errors.New("Invalid credentials")
	ErrAccountLocked       = errors.New("Account temporarily locked due to too many failed login attempts")
	ErrAccountInactive     = errors.New("Account is not active")
	ErrInvalidTransition   = errors.New("Operation not allowed in the current state")
	ErrAlreadySold         = errors.New("Product is already sold")
	ErrOffersDisabled      = errors.New("Seller does not accept offers for this product")
	ErrLimitReached        = errors.New("Limit reached")
	ErrFeatureDisabled     = errors.New("This feature is currently disabled")
	ErrInvalidResetToken   = errors.New("Invalid or expired reset token")
	ErrInvalidVerification = errors.New("Invalid or expired verification token")
	ErrInvalidAction       = errors.New(`Invalid action. Must be "approve" or "reject"`)
	ErrUnknownSchema       = errors.New("Validation schema not found")
)

var errorMap = []struct {
	err    error
	status int
}{
	{ErrBadRequest, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrUserAlreadyExists, http.StatusConflict},
	{ErrConflict, http.StatusConflict},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrAccountLocked, http.StatusForbidden},
	{ErrAccountInactive, http.StatusForbidden},
	{ErrInvalidTransition, http.StatusConflict},
	{ErrAlreadySold, http.StatusConflict},
	{ErrOffersDisabled, http.StatusBadRequest},
	{ErrLimitReached, http.StatusForbidden},
	{ErrFeatureDisabled, http.StatusForbidden},
	{ErrInvalidResetToken, http.StatusBadRequest},
	{ErrInvalidVerification, http.StatusBadRequest},
	{ErrInvalidAction, http.StatusBadRequest},
	{ErrUnknownSchema, http.StatusInternalServerError},
}

// StatusCode maps an error (possibly wrapped) to an HTTP status code.
func StatusCode(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	for _, entry := range errorMap {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

// ValidationError carries per-field messages back to the HTTP boundary.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// NewValidation builds a ValidationError.
func NewValidation(message string, fields map[string]string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// Message returns the client-facing text for err. Detail appended after a
// leading sentinel ("%w: detail") is kept; internal prefixes are dropped.
func Message(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	for _, entry := range errorMap {
		if errors.Is(err, entry.err) {
			if strings.HasPrefix(err.Error(), entry.err.Error()) {
				return err.Error()
			}
			return entry.err.Error()
		}
	}
	return err.Error()
}
