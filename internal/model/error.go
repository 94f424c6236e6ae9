package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON   = "INVALID_JSON"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeClaimRejected = "CLAIM_REJECTED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

var (
	// ErrValidation marks malformed input: a customer id that is empty,
	// oversized or not printable UTF-8, or a submitted code that cannot
	// possibly be a claim code.
	ErrValidation = NewDomainError(ErrCodeInvalidInput, "Invalid customer id or claim code")

	// ErrClaimRejected is returned for both "no active code" and "wrong code".
	// The two causes are deliberately indistinguishable to the caller.
	ErrClaimRejected = NewDomainError(ErrCodeClaimRejected, "Invalid code")

	// ErrStore wraps any failure of the backing card store.
	ErrStore = errors.New("stamp card store failure")

	// ErrInvariantViolation means a card was observed outside [0, capacity].
	ErrInvariantViolation = errors.New("stamp card invariant violated")
)
