package serial

import (
	"errors"
	"fmt"
)

var (
	// ErrShortPage is wrapped by the ReadError returned when the data left
	// at the current offset cannot satisfy a read.
	ErrShortPage = errors.New("not enough remaining bytes at current offset")

	// ErrReleased is returned by every operation on a released or moved from
	// Writer or Reader.
	ErrReleased = errors.New("resource has been released")

	// ErrInvalidValue is returned when a value has no fixed binary layout.
	ErrInvalidValue = errors.New("value does not have a fixed layout")

	// ErrPageTooLarge is returned for a reader page size that cannot be
	// allocated as one buffer.
	ErrPageTooLarge = errors.New("page size too large")

	// ErrNilSink is returned when a Writer or Reader is created without an
	// ErrorSink to report release failures to.
	ErrNilSink = errors.New("error sink is nil")

	errOffsetRange = errors.New("offset out of range")
)

// WriteError reports a failed open, write, seek or flush of a write resource.
type WriteError struct {
	Name string
	Msg  string
	Err  error
}

func (e *WriteError) Error() string {
	return describe("failed to write", e.Name, e.Msg, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ReadError reports a failed open, read or seek of a read resource.
type ReadError struct {
	Name string
	Msg  string
	Err  error
}

func (e *ReadError) Error() string {
	return describe("failed to read", e.Name, e.Msg, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// CloseError reports a resource that could not be closed. These only ever
// reach callers through an ErrorSink or an explicit Close.
type CloseError struct {
	Name string
	Err  error
}

func (e *CloseError) Error() string {
	return describe("failed to close", e.Name, "", e.Err)
}

func (e *CloseError) Unwrap() error {
	return e.Err
}

// InvalidPageSizeError is returned for a reader page size of zero.
type InvalidPageSizeError struct {
	Size uint64
}

func (e *InvalidPageSizeError) Error() string {
	return fmt.Sprintf("invalid page size: %d", e.Size)
}

func describe(action, name, msg string, err error) string {
	s := fmt.Sprintf("%s '%s'", action, name)
	if msg != "" {
		s += ": " + msg
	}
	if err != nil {
		s += ": " + err.Error()
	}
	return s
}
