package foodgram

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced recipe, user, tag or ingredient does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when an operation requires an authenticated user.
	ErrUnauthorized = errors.New("authentication credentials were not provided")
	// ErrForbidden is returned when the caller may not modify the target.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrInvalidCredentials is returned by Login for unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
)

// ValidationError carries field level messages for rejected input.
// Messages that do not belong to a single field use the NonFieldErrors key.
type ValidationError struct {
	Fields map[string][]string
}

// NonFieldErrors is the key of messages that concern the whole input.
const NonFieldErrors = "non_field_errors"

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message to a field.
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// Empty reports whether no message was recorded.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

func (v *ValidationError) Error() string {
	if v.Empty() {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Fields))
	for _, field := range slices.Sorted(maps.Keys(v.Fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(v.Fields[field], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// errOrNil keeps a nil *ValidationError from becoming a non-nil error interface.
func (v *ValidationError) errOrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func notFound(what string, id uint) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
}
