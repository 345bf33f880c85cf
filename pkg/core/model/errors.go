package model

import "errors"

// Failure categories returned by every operation. Callers match them with errors.Is.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)
