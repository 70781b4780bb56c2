package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyParty      = errors.New("party name is required")
	ErrEmptyContractor = errors.New("contractor name is required")
	ErrNameTooLong     = errors.New("name too long (max 200 characters)")
	ErrInvalidAmount   = errors.New("amount must be greater than 0")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrNoMovement      = errors.New("at least one amount should be greater than 0")
	ErrMissingDate     = errors.New("a valid date is required")
	ErrInvalidDealID   = errors.New("invalid deal id")
	ErrInvalidStatus   = errors.New("invalid deal status")
	ErrInvalidRange    = errors.New("invalid quick date range")
)

// ValidationError reports user input that failed a domain rule. It is
// always raised before any write is attempted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserMessage maps a validation failure to the text shown next to the
// entry forms. Other errors get a generic message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoMovement):
		return "At least one amount should be greater than 0."
	case errors.Is(err, ErrMissingDate) && !isDealField(err):
		return "Please select a valid transaction date."
	case IsValidation(err):
		return "Please fill all fields with valid values."
	default:
		return "Something went wrong. Please try again."
	}
}

// isDealField reports whether err concerns the add-deal form, which has a
// single generic message.
func isDealField(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Field == "start_date"
}
