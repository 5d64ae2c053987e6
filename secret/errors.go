package secret

import "errors"

// Sentinel errors for secret resolution.
var (
	// ErrMissingEnv is returned when ${VAR} names an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrProviderNotRegistered is returned for references to unknown providers.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrInvalidProvider is returned for an invalid provider registration.
	ErrInvalidProvider = errors.New("secret: invalid provider registration")

	// ErrEmptySecret is returned in strict mode when a provider yields "".
	ErrEmptySecret = errors.New("secret: provider returned empty value")

	// ErrSecretNotFound is returned when a provider has no value for a ref.
	ErrSecretNotFound = errors.New("secret: not found")

	// ErrMissingIdentity is returned when the age provider has no identity.
	ErrMissingIdentity = errors.New("secret: age identity not configured")
)
