package models

import "errors"

// Error kinds shared by the supervisor, the alert services and the API layer.
// Callers wrap them with context and match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrSpawnFailure      = errors.New("worker spawn failed")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
)
