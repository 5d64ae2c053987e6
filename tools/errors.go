package tools

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is returned by Call for unregistered tool names.
var ErrUnknownTool = errors.New("tools: unknown tool")

// ValidationError reports an invalid tool argument.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
