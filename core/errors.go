package core

import "github.com/pkg/errors"

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("record not found")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is malformed or incomplete input to an operation. Nothing is written when it is returned.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// DataAccessError means the store was unreachable or a query failed.
type DataAccessError struct {
	Op  string
	Err error
}

func NewDataAccessError(op string, err error) error {
	return &DataAccessError{Op: op, Err: err}
}

func (err DataAccessError) Error() string {
	if err.Err == nil {
		return err.Op + ": data access failed"
	}
	return err.Op + ": " + err.Err.Error()
}

func (err DataAccessError) Unwrap() error { return err.Err }

func IsDataAccess(err error) bool {
	_, ok := errors.Cause(err).(*DataAccessError)
	return ok
}

// NotificationError is a failed or rejected gateway send for one recipient.
type NotificationError struct {
	Recipient string
	Err       error
}

func NewNotificationError(recipient string, err error) error {
	return &NotificationError{Recipient: recipient, Err: err}
}

func (err NotificationError) Error() string {
	if err.Err == nil {
		return "notifying " + err.Recipient + ": failed"
	}
	return "notifying " + err.Recipient + ": " + err.Err.Error()
}

func (err NotificationError) Unwrap() error { return err.Err }

func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
