package errors

import "errors"

// Common error conditions surfaced by the Petmily client
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")

	// Provider bridge errors
	ErrProviderKeyMissing  = errors.New("provider app key is not configured")
	ErrProviderUnavailable = errors.New("provider initialization failed")
	ErrExchangeConsumed    = errors.New("redirect exchange already consumed")
	ErrExchangeRejected    = errors.New("redirect exchange rejected")
	ErrMissingParams       = errors.New("missing redirect parameters")

	// Transport errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnreachable  = errors.New("backend unreachable")
	ErrNotFound     = errors.New("not found")
)
