package moderation

import "errors"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient role")
	ErrConflict     = errors.New("conflicting state change")
	ErrInvalidInput = errors.New("invalid input")
)
