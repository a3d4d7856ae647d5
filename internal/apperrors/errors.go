// Package apperrors defines the error kinds surfaced by the service core.
// Callers match kinds with errors.Is.
package apperrors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrConflictRetryable  = errors.New("conflicting concurrent update, retry")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error carries the failing operation and an error kind
type Error struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error, or the kind when there is none
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches against the kind as well as the wrapped error
func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// New creates an error of the given kind
func New(op string, kind error, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// Wrap attaches an operation and kind to err
func Wrap(op string, kind error, message string, err error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

// Postgres SQLSTATE codes the service reacts to
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgConnectionClass      = "08"
)

// FromStorage classifies a datastore error into one of the service kinds.
// Errors that already carry a kind, and nil, are returned unchanged.
func FromStorage(op string, err error) error {
	if err == nil || Kind(err) != nil {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(op, ErrNotFound, "record not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgSerializationFailure, pgErr.Code == pgDeadlockDetected:
			return Wrap(op, ErrConflictRetryable, "transaction conflict", err)
		case pgErr.Code == pgUniqueViolation:
			return Wrap(op, ErrAlreadyExists, "duplicate record", err)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgConnectionClass:
			return Wrap(op, ErrStorageUnavailable, "database connection failure", err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return Wrap(op, ErrStorageUnavailable, "database unreachable", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(op, ErrStorageUnavailable, "database timeout", err)
	}
	return err
}

// Kind returns the service kind of err, or nil if it has none
func Kind(err error) error {
	for _, kind := range []error{
		ErrInvalidInput,
		ErrUnauthorized,
		ErrNotFound,
		ErrAlreadyExists,
		ErrConflictRetryable,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsRetryable reports whether the whole operation may be retried
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflictRetryable)
}
