// Package cli provides shared configuration and utilities for the quilt CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pthm/quilt"
	"github.com/pthm/quilt/pkg/fragfile"
)

// Exit codes.
const (
	ExitSuccess   = 0
	ExitGeneral   = 1
	ExitConfig    = 2
	ExitFragments = 3
	ExitDBConnect = 4
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode picks the process exit code for err. Errors without an explicit
// code exit with ExitFragments when they come from resolving or rendering
// fragments.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if isFragmentErr(err) {
		return ExitFragments
	}
	return ExitGeneral
}

func isFragmentErr(err error) bool {
	return quilt.IsUnknownFragmentErr(err) ||
		quilt.IsCircularDependencyErr(err) ||
		quilt.IsInvalidFragmentErr(err) ||
		errors.Is(err, fragfile.ErrUndeclaredDependency)
}

// Hint suggests a fix for fragment errors, or returns "".
func Hint(err error) string {
	switch {
	case quilt.IsUnknownFragmentErr(err):
		return "check the names in 'depends' and 'alias', or run 'quilt doctor'"
	case quilt.IsCircularDependencyErr(err):
		return "break the cycle by moving the shared part into its own fragment"
	case errors.Is(err, fragfile.ErrUndeclaredDependency):
		return "list every fragment used with table or ref in 'depends'"
	case quilt.IsInvalidFragmentErr(err):
		return "every fragment must have a non-empty sql body"
	case errors.Is(err, fragfile.ErrUnsupportedFormat):
		return "fragment files must end in .yaml, .yml or .toml"
	default:
		return ""
	}
}

// PrintError writes err and its hint, if any, to w.
func PrintError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, "Error:", err)
	if hint := Hint(err); hint != "" {
		_, _ = fmt.Fprintln(w, "Hint:", hint)
	}
}

// ExitWithError prints the error and exits with the appropriate code.
func ExitWithError(err error) {
	PrintError(os.Stderr, err)
	os.Exit(ExitCode(err))
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// FragmentsError creates an ExitError with ExitFragments code, for fragment
// files that fail to load and fragments that fail to build.
func FragmentsError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitFragments, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}
