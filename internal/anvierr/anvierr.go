// Package anvierr defines the error kinds shared across anvigo packages.
//
// Every kind is a sentinel that callers match with errors.Is. The
// constructors wrap the sentinel with a message naming the violated
// precondition.
package anvierr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks incompatible databases, duplicate inputs, wrong
	// database variants and malformed arguments.
	ErrConfig = errors.New("configuration error")

	// ErrOutputExists marks an output file that would be overwritten
	// without permission.
	ErrOutputExists = errors.New("output exists")

	// ErrCapacity marks a discrete palette too small for the number of
	// source combinations.
	ErrCapacity = errors.New("palette capacity exceeded")

	// ErrInconsistentMembership marks a map entry whose source union is
	// empty or absent from the combination table.
	ErrInconsistentMembership = errors.New("inconsistent membership")
)

// Config returns an ErrConfig with a formatted message.
func Config(format string, args ...any) error {
	return wrap(ErrConfig, format, args...)
}

// OutputExists returns an ErrOutputExists naming the existing path.
func OutputExists(path string) error {
	return fmt.Errorf("%w: %s (delete it or allow overwriting output)", ErrOutputExists, path)
}

// Capacity returns an ErrCapacity for need combinations against have colors.
func Capacity(need, have int) error {
	return fmt.Errorf("%w: %d source combinations but only %d discrete colors", ErrCapacity, need, have)
}

// Membership returns an ErrInconsistentMembership with a formatted message.
func Membership(format string, args ...any) error {
	return wrap(ErrInconsistentMembership, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
