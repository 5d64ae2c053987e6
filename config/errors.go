package config

import "errors"

var (
	// ErrMissingAPIKey is returned when TAOSTATS_API_KEY resolves to "".
	ErrMissingAPIKey = errors.New("config: TAOSTATS_API_KEY is not set")

	// ErrInvalidURL is returned for a base URL without scheme or host.
	ErrInvalidURL = errors.New("config: invalid base URL")

	// ErrInvalidLimit is returned for negative limits or pool sizes.
	ErrInvalidLimit = errors.New("config: invalid limit")

	// ErrInvalidTimeout is returned for non-positive timeouts.
	ErrInvalidTimeout = errors.New("config: invalid timeout")
)
