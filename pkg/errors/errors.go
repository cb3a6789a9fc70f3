package errors

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrInvalidFileFormat  = errors.New("invalid file format")
	ErrNoValidRows        = errors.New("no valid rows to submit")
	ErrConfirmationNeeded = errors.New("confirmation required")
	ErrNotCancellable     = errors.New("document is not cancellable in its current state")
	ErrNotAssessable      = errors.New("document is not assessable in its current state")
)

// AuthError halts the operation that hit it; it is never retried
// automatically because a missing or expired credential will not fix
// itself on the next attempt.
type AuthError struct {
	Err error
}

func (e AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e AuthError) Unwrap() error {
	return e.Err
}

func NewAuthError(err error) error {
	return AuthError{Err: err}
}

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

// TransportError carries the HTTP status and the server-provided detail
// message (or the raw body when no detail could be parsed). The operation
// that produced it is retryable by re-invoking the same command.
type TransportError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error (HTTP %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("transport error: %s", e.Detail)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

func NewTransportError(statusCode int, detail string, err error) error {
	return TransportError{StatusCode: statusCode, Detail: detail, Err: err}
}

// RetryableError marks a failure the next poll tick or a re-invoked
// command is expected to recover from: transport-level faults and
// server-side 5xx responses. Client errors and credential failures are
// never wrapped in it.
type RetryableError struct {
	Err     error
	Message string
}

func (e RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %s - %s", e.Message, e.Err.Error())
}

func (e RetryableError) Unwrap() error {
	return e.Err
}

func NewRetryableError(err error, message string) error {
	return RetryableError{
		Err:     err,
		Message: message,
	}
}

// Detail extracts the user-facing message from an error, preferring the
// server-provided detail of a TransportError over the generic chain.
func Detail(err error) string {
	var te TransportError
	if errors.As(err, &te) && te.Detail != "" {
		return te.Detail
	}
	return err.Error()
}

func IsAuth(err error) bool {
	var ae AuthError
	return errors.As(err, &ae)
}

func IsRetryable(err error) bool {
	var re RetryableError
	return errors.As(err, &re)
}
