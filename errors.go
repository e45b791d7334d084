package main

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is() to check for these in calling code.
var (
	// ErrNoDatabaseURL is returned when no connection URL is configured.
	ErrNoDatabaseURL = errors.New("database url is not set")

	// ErrUnsupportedDialect is returned when the URL scheme names a
	// database this server has no adapter for.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")

	// ErrTableNotFound is returned when the catalog has no columns for a table.
	ErrTableNotFound = errors.New("table not found")

	// ErrInvalidParams is returned when query parameters are not scalars.
	ErrInvalidParams = errors.New("invalid query parameters")
)

// ConfigurationError reports a missing or invalid setting. It is fatal
// at startup and never retried.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConnectionError reports that no connection could be acquired. Retried
// is set when the fresh-engine retry also failed, and Err is then the
// cause of the retry. It is false when the caller's context ended the
// first attempt.
type ConnectionError struct {
	Err     error
	Retried bool
}

func (e *ConnectionError) Error() string {
	if e.Retried {
		return fmt.Sprintf("connection failed after retry: %v", e.Err)
	}
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NotFoundError reports a table the catalog does not know.
type NotFoundError struct {
	Table string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("table %q not found", e.Table)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrTableNotFound }
