package engine

import "errors"

// ErrRootInvalid wraps a root directory that does not exist or is not a
// directory.
var ErrRootInvalid = errors.New("engine: invalid root directory")

// ErrCancelled is returned when ctx was cancelled before a scan completed.
var ErrCancelled = errors.New("engine: operation cancelled")
