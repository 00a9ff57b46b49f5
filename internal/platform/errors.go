package platform

import "errors"

var (
	// ErrMalformedPayload indicates a command payload that could not be parsed.
	ErrMalformedPayload = errors.New("malformed command payload")

	// ErrUnknownDevice indicates a command for a device the publisher
	// has no registration for.
	ErrUnknownDevice = errors.New("unknown device")
)
