package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a DomainError so transports can map it to a status code.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidState
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "unknown"
	}
}

// DomainError is a business-rule rejection that is safe to show to callers.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a DomainError with the same code, so package
// level sentinels can be matched with errors.Is after WithMessage copies.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: msg}
}

// New creates a DomainError with an explicit kind and code.
func New(kind Kind, code, msg string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: msg}
}

// NewValidationError creates a generic validation error.
func NewValidationError(msg string) *DomainError {
	return New(KindValidation, "VALIDATION_ERROR", msg)
}

// NewConflictError creates a concurrency or uniqueness conflict error.
func NewConflictError(msg string) *DomainError {
	return New(KindConflict, "CONFLICT", msg)
}

// AsDomainError extracts a DomainError from err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
