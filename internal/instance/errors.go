// internal/instance/errors.go
//
// Error taxonomy for the instance lifecycle.
//
// Context
// -------
// Four outcomes matter to callers, and each maps to one HTTP status at
// the API boundary:
//
//	*ValidationError – missing or empty required field (400).
//	ErrNotFound      – no instance, or secret mismatch on Validate (404/401).
//	ErrUnauthorized  – secret mismatch on Delete (401).
//
// Validate intentionally collapses "no instance exists" and "wrong
// secret" into the same ErrNotFound: the caller must not be able to tell
// the two apart.  Anything else propagates unchanged and surfaces as an
// opaque 500.
package instance

import "errors"

// ErrNotFound is returned when an operation needs an instance that does
// not exist, and by Validate on any miss.
var ErrNotFound = errors.New("instance not found")

// ErrUnauthorized is returned by Delete when the supplied secret does not
// validate against the current instance.
var ErrUnauthorized = errors.New("secret did not match the current instance")

// ValidationError reports a missing required field by name.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string { return e.Field + " is required" }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
