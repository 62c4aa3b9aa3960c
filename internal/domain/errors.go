package domain

import "errors"

// Sentinel errors for the domain layer. Repositories return ErrNotFound both
// for rows that do not exist and for rows a conditional-update guard refused
// to touch; ErrConflict marks a write another account already won.
var (
	ErrNotFound = errors.New("domain: not found")
	ErrConflict = errors.New("domain: conflict")
)
