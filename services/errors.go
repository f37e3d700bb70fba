package services

import "errors"

// Service-level failures. Handlers translate these to HTTP statuses; the
// services themselves never touch fiber so the state machine stays testable
// without a running server.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ValidationError names the single field that made the request unusable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError is a state-machine violation: reviewing a project that is not
// in review, claiming a full or completed bounty, double-claiming, and the
// like. The reason is meant to be shown to the caller as-is.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func conflictErr(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}
