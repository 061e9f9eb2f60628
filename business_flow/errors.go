// Package businessflow contains the broadcast pipeline and contact commands
package businessflow

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Business flow error constants
var (
	// Document errors
	ErrEmptyInput      = errors.New("markdown input is empty")
	ErrInvalidDocument = errors.New("document requires subject, summary and body")

	// Broadcast errors
	ErrBroadcastSlugExists = errors.New("a broadcast with this slug already exists")

	// Contact errors
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidEmail  = errors.New("email is invalid")
	ErrNameTooLong   = errors.New("name is too long")
	ErrSearchTerm    = errors.New("search term is required")

	// Tag errors
	ErrTagRequired = errors.New("tag is required")
)

// validationErrors are caller mistakes detected before the store is touched
var validationErrors = []error{
	ErrEmptyInput,
	ErrInvalidDocument,
	ErrBroadcastSlugExists,
	ErrEmailRequired,
	ErrInvalidEmail,
	ErrNameTooLong,
	ErrSearchTerm,
	ErrTagRequired,
}

// BusinessError carries a stable code for the API layer
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// StoreError wraps a failure raised by the relational store.
// The transaction that produced it has already been rolled back.
type StoreError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StoreError) Error() string {
	kind := "permanent"
	if e.Retryable {
		kind = "transient"
	}
	return fmt.Sprintf("%s: %s store error: %v", e.Op, kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PostgreSQL SQLSTATE codes worth retrying
var retryablePgCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57014": {}, // query_canceled (statement_timeout)
	"53300": {}, // too_many_connections
	"57P01": {}, // admin_shutdown
}

// ClassifyStoreError wraps err into a StoreError and decides whether retrying may help.
// Validation and business errors pass through unchanged.
func ClassifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidationError(err) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Retryable: isTransient(err), Err: err}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := retryablePgCodes[pgErr.Code]; ok {
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08") // connection_exception class
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"database is locked", "connection refused", "connection reset", "timeout", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsValidationError reports whether err is a caller mistake that must not be retried
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err is a transient store failure
func IsRetryable(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Retryable
}

func IsEmptyInput(err error) bool {
	return errors.Is(err, ErrEmptyInput)
}

func IsInvalidDocument(err error) bool {
	return errors.Is(err, ErrInvalidDocument)
}

func IsBroadcastSlugExists(err error) bool {
	return errors.Is(err, ErrBroadcastSlugExists)
}
