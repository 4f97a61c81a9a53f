package quilt

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the three structural failure modes of a build.
// They are deterministic given the registry's state: retrying a build
// without changing the registry reproduces the same error.
//
// The concrete errors returned carry the offending names; use the Is*Err
// helpers or errors.As to inspect them.
var (
	// ErrUnknownFragment is returned when the build root or a declared
	// dependency is not registered.
	ErrUnknownFragment = errors.New("quilt: unknown fragment")

	// ErrCircularDependency is returned when a fragment's dependency chain
	// revisits one of its own ancestors.
	ErrCircularDependency = errors.New("quilt: circular dependency")

	// ErrInvalidFragment is returned when a fragment returns something that
	// is not a query, or when a fragment is registered without a name or
	// build function.
	ErrInvalidFragment = errors.New("quilt: invalid fragment")
)

// UnknownFragmentError names a fragment that could not be found.
// Referrer is empty when the missing fragment is the build root.
type UnknownFragmentError struct {
	Name     string
	Referrer string
}

func (e *UnknownFragmentError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("%v: %q", ErrUnknownFragment, e.Name)
	}
	return fmt.Sprintf("%v: %q (referenced by %q)", ErrUnknownFragment, e.Name, e.Referrer)
}

func (e *UnknownFragmentError) Unwrap() error { return ErrUnknownFragment }

// CircularDependencyError describes a dependency cycle.
// Cycle starts and ends with the revisited fragment, e.g. [a b a];
// a self-reference is [x x].
type CircularDependencyError struct {
	Fragment string
	Cycle    []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCircularDependency, strings.Join(e.Cycle, " → "))
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// InvalidFragmentError reports a fragment whose build function returned a
// value that is not a query. Got is the Go type of that value.
type InvalidFragmentError struct {
	Name string
	Got  string
}

func (e *InvalidFragmentError) Error() string {
	return fmt.Sprintf("%v: %q returned %s, want a query", ErrInvalidFragment, e.Name, e.Got)
}

func (e *InvalidFragmentError) Unwrap() error { return ErrInvalidFragment }

// IsUnknownFragmentErr returns true if err is or wraps ErrUnknownFragment.
func IsUnknownFragmentErr(err error) bool {
	return errors.Is(err, ErrUnknownFragment)
}

// IsCircularDependencyErr returns true if err is or wraps ErrCircularDependency.
func IsCircularDependencyErr(err error) bool {
	return errors.Is(err, ErrCircularDependency)
}

// IsInvalidFragmentErr returns true if err is or wraps ErrInvalidFragment.
func IsInvalidFragmentErr(err error) bool {
	return errors.Is(err, ErrInvalidFragment)
}
