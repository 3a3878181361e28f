package models

import "errors"

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownTicketType = errors.New("unknown ticket type")
	ErrInvalidDataset    = errors.New("invalid dataset")
)

// ValidationError is a coded, user-facing validation failure
type ValidationError struct {
	Code    string
	Message string
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches validation errors by code
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Dataset errors
var (
	ErrDatasetEmpty     = NewValidationError("dataset_empty", "dataset contains no races")
	ErrDatasetDuplicate = NewValidationError("dataset_duplicate", "dataset already exists for this racetrack and date")
)
