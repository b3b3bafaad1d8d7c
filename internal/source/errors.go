package source

import (
	"errors"
	"fmt"
)

// Sentinel errors for source operations.
var (
	ErrInvalidResponse = errors.New("source: invalid response")
	ErrNotFound        = errors.New("source: not found")
	ErrRateLimited     = errors.New("source: rate limited by server")
	ErrBadRequest      = errors.New("source: bad request")
	ErrServer          = errors.New("source: server error")
	ErrUnavailable     = errors.New("source: temporarily unavailable")
	ErrUnsupported     = errors.New("source: unsupported operation")
)

// AdapterError wraps an underlying error with operation context.
type AdapterError struct {
	Source Source
	Op     string // Operation: "fetch", "searchById", "resources", "downloads"
	ID     string // If applicable
	Err    error
}

func (e *AdapterError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Source, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// WrapError attaches source and operation context to err. Nil stays nil.
func WrapError(src Source, op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Source: src, Op: op, ID: id, Err: err}
}

// Invalidf builds an ErrInvalidResponse with a description of what was wrong.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidResponse, fmt.Sprintf(format, args...))
}
