package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

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

// MissingScopeError is the panic value raised when tenant-owned data is
// touched without a tenant scope. It marks a defect in the calling code,
// not bad request data; there is no recovery path.
type MissingScopeError struct {
	Op string
}

func (e MissingScopeError) Error() string {
	return fmt.Sprintf("tenant scope missing in %s: tenant-owned data accessed without a tenant id", e.Op)
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
