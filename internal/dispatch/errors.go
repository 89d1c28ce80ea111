package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by [Dispatcher.Dispatch] and [Lookup].
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownOperation = errors.New("unknown operation")
)

// ArgumentError names the parameter that failed validation and why.
// It matches ErrInvalidArgument with errors.Is.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

func argErr(param, format string, args ...interface{}) error {
	return &ArgumentError{Param: param, Reason: fmt.Sprintf(format, args...)}
}
