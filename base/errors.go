package base

import (
	"errors"
	"fmt"
)

// ErrSinkClosed is returned by Submit on a sink which has begun closing or has already
// terminated, whether cleanly or on a flush error
var ErrSinkClosed = errors.New("sink is closed")

// FlushError records the device failure which terminated a sink
//
// Op is the device operation that failed, "write" or "close". The same value is returned
// from every Close call and passed to drain callbacks pending at the time of failure.
type FlushError struct {
	Op  string
	Err error
}

// NewFlushError wraps a device error with the failed operation name
func NewFlushError(op string, err error) *FlushError {
	return &FlushError{Op: op, Err: err}
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("device %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying device error for errors.Is and errors.As
func (e *FlushError) Unwrap() error {
	return e.Err
}
