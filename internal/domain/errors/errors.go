package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the bot's failure taxonomy.
var (
	// ErrUnknownIdentifier indicates a user id absent from the directory.
	// Callers decide whether this is a hard or soft failure.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrCommandTimeout indicates an external command invocation exceeded
	// its bound. Must be reported to the issuing user, never dropped.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrTransportTimeout indicates a per-read timeout on the event stream.
	// Logged by the session loop; the loop keeps running.
	ErrTransportTimeout = errors.New("transport read timed out")
)

// MalformedEventError indicates an otherwise-classifiable event is missing
// an expected field. It carries the offending payload for diagnostics and
// is always contained to the event that produced it.
type MalformedEventError struct {
	Reason string
	Raw    any
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event: %s", e.Reason)
}

// NewMalformedEvent creates a MalformedEventError.
func NewMalformedEvent(reason string, raw any) *MalformedEventError {
	return &MalformedEventError{Reason: reason, Raw: raw}
}

// UpstreamError indicates a web-API call reported non-success. The
// operation aborts but the process continues.
type UpstreamError struct {
	Op    string
	Cause error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Cause)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

// NewUpstreamError creates an UpstreamError.
func NewUpstreamError(op string, cause error) *UpstreamError {
	return &UpstreamError{Op: op, Cause: cause}
}

// TransientError wraps failures that are worth retrying (network errors,
// rate limits, upstream server errors).
type TransientError struct {
	msg   string
	cause error
}

func (e *TransientError) Error() string { return e.msg }

func (e *TransientError) Unwrap() error { return e.cause }

// NewTransientError creates a TransientError.
func NewTransientError(msg string, cause error) *TransientError {
	return &TransientError{msg: msg, cause: cause}
}

// PermanentError wraps failures that retrying will not fix (bad auth,
// missing channel, revoked token).
type PermanentError struct {
	msg   string
	cause error
}

func (e *PermanentError) Error() string { return e.msg }

func (e *PermanentError) Unwrap() error { return e.cause }

// NewPermanentError creates a PermanentError.
func NewPermanentError(msg string, cause error) *PermanentError {
	return &PermanentError{msg: msg, cause: cause}
}

// IsTransient reports whether err is, or wraps, a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
