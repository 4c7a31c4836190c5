package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors (permanent)
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// Remote API errors
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrBadRequest         = fmt.Errorf("malformed request")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRetriesExhausted   = fmt.Errorf("retries exhausted")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Ledger errors
	ErrSchemaMismatch = fmt.Errorf("ledger schema mismatch")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsTransient reports whether err is a failure worth retrying: a timeout,
// a rate-limit response, or a temporarily unavailable service.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServiceUnavailable)
}

// IsPermanent reports whether err must abort the current sync run instead of
// degrading to "no result". Auth failures and malformed requests never
// resolve themselves on retry, and swallowing them as "no match" would hide
// an operator problem.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrBadRequest)
}
