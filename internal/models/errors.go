package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across repositories and services. Handlers map
// them to HTTP statuses with errors.Is / errors.As.
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidSecret    = errors.New("confirmation code does not match")
	ErrDuplicateSlug    = errors.New("slug already in use")
	ErrDuplicateReview  = errors.New("author already reviewed this title")
	ErrInvalidScore     = errors.New("score must be between 1 and 10")
	ErrInvalidYear      = errors.New("year must not exceed the current year")
	ErrUnknownReference = errors.New("referenced slug does not exist")
)

// DuplicateIdentityError reports which sign-up field collided with an
// existing, different user record.
type DuplicateIdentityError struct {
	Field string // "username" or "email"
	Value string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("a user with this %s already exists: %s", e.Field, e.Value)
}

// ValidationError carries a per-field validation failure message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
