package walker

import "errors"

var errNotADirectory = errors.New("not a directory")

// RootInvalidError is returned by Walk when root does not exist or is not a
// directory — the one error case spec.md §7 requires the engine to surface
// rather than swallow.
type RootInvalidError struct {
	Root  string
	Cause error
}

func (e *RootInvalidError) Error() string {
	return "invalid root " + e.Root + ": " + e.Cause.Error()
}

func (e *RootInvalidError) Unwrap() error { return e.Cause }
