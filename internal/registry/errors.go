package registry

import "errors"

var (
	// ErrNotFound indicates no paired device exists for the given address.
	ErrNotFound = errors.New("paired device not found")

	// ErrInvalidRecord indicates a record is missing required fields.
	ErrInvalidRecord = errors.New("invalid pairing record")
)
