package asyncio

import (
	"errors"
	"fmt"
)

// BrokenPromise is the rejection reason attached to a Future whose Promise
// was dropped (garbage collected) while still pending. It mirrors liblw's
// broken_promise: a caller that discarded every reference to a Promise
// without resolving or rejecting it gets this instead of a Future that
// hangs forever.
type BrokenPromise struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *BrokenPromise) Error() string {
	if e.Message == "" {
		return "asyncio: broken promise"
	}
	return "asyncio: broken promise: " + e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *BrokenPromise) Unwrap() error { return e.Cause }

// InvalidState reports a programmer error: resolving/rejecting an
// already-finished Promise, attaching a second continuation to a Future,
// or driving a Stream/Pipe outside its state machine.
type InvalidState struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *InvalidState) Error() string {
	if e.Message == "" {
		return "asyncio: invalid state"
	}
	return "asyncio: invalid state: " + e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *InvalidState) Unwrap() error { return e.Cause }

// PipeErrorCode enumerates the known PipeError causes.
type PipeErrorCode int

const (
	// PipeErrorConnectInFlightOrFinished is the code used by Pipe.Connect
	// when a prior Connect call on the same Pipe is either still pending or
	// already finished: connect may be attempted at most once per Pipe,
	// successful or not.
	PipeErrorConnectInFlightOrFinished PipeErrorCode = 1
)

// PipeError reports a failure specific to Pipe semantics.
type PipeError struct {
	Code    PipeErrorCode
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *PipeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("asyncio: pipe error %d", e.Code)
	}
	return fmt.Sprintf("asyncio: pipe error %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *PipeError) Unwrap() error { return e.Cause }

// StreamError reports a failure in the generic Stream request queue, such
// as a request submitted to a Stream that is closed or closing.
type StreamError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Message == "" {
		return "asyncio: stream error"
	}
	return "asyncio: stream error: " + e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *StreamError) Unwrap() error { return e.Cause }

// EndOfStream is the sentinel rejection used by Pipe.Read and File.Read
// once a stream reaches its end; callers distinguish this from a genuine
// I/O failure with errors.Is/errors.As.
type EndOfStream struct {
	Cause error
}

// Error implements the error interface.
func (e *EndOfStream) Error() string { return "asyncio: end of stream" }

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *EndOfStream) Unwrap() error { return e.Cause }

// IsEndOfStream reports whether err is, or wraps, an *EndOfStream.
func IsEndOfStream(err error) bool {
	var e *EndOfStream
	return errors.As(err, &e)
}

// WrapError wraps cause with a message, in the style used throughout this
// package for constructing the error kinds above.
func WrapError(message string, cause error) error {
	if cause == nil {
		return errors.New(message)
	}
	return fmt.Errorf("%s: %w", message, cause)
}
