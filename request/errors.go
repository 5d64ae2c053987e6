package request

import "errors"

// Causes recorded in Unexpected failures.
var (
	// ErrInvalidJSON indicates a 2xx response whose body is not JSON.
	ErrInvalidJSON = errors.New("request: response body is not valid JSON")

	// ErrResponseTooLarge indicates the body exceeded Config.MaxResponseBytes.
	ErrResponseTooLarge = errors.New("request: response body too large")

	// ErrInvalidURL indicates the resolved URL could not be parsed.
	ErrInvalidURL = errors.New("request: invalid url")
)
