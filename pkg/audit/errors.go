package audit

import "errors"

var (
	// ErrWriteFailed wraps failures of a BatchWriter. It is logged, never returned to callers of Record.
	ErrWriteFailed = errors.New("audit: batch write failed")

	// ErrInvalidLog indicates an operation log missing required fields.
	ErrInvalidLog = errors.New("audit: invalid operation log")

	// ErrRecorderClosed is returned by Close when called more than once.
	ErrRecorderClosed = errors.New("audit: recorder closed")
)
