package errors

import "errors"

// Client errors.
var (
	ErrSessionRevoked = errors.New("session revoked")
	ErrNotFound       = errors.New("bookmark not found")
)

// Server/transport errors.
var (
	ErrAPIRequest        = errors.New("API request failed")
	ErrMalformedSnapshot = errors.New("malformed cloud snapshot")
)
