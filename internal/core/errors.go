package core

import (
	"errors"
	"fmt"

	"github.com/ebfe/scard"
)

// PC/SC status codes the diagnostic reacts to.
const (
	CodeTimeout            = uint32(scard.ErrTimeout)
	CodeNoSmartcard        = uint32(scard.ErrNoSmartcard)
	CodeNotTransacted      = uint32(scard.ErrNotTransacted)
	CodeNoReadersAvailable = uint32(scard.ErrNoReadersAvailable)
	CodeRemovedCard        = uint32(scard.ErrRemovedCard)
)

// ServiceError is a non-success result from the PC/SC service.
// Code holds the raw status code, or 0 when the failure did not carry one.
type ServiceError struct {
	Op   string
	Code uint32
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: 0x%08x", e.Op, e.Code)
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": failed"
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err for op, extracting the PC/SC status code if present.
func newServiceError(op string, err error) *ServiceError {
	var svc *ServiceError
	if errors.As(err, &svc) {
		return &ServiceError{Op: op, Code: svc.Code, Err: svc.Err}
	}
	return &ServiceError{Op: op, Code: statusCode(err), Err: err}
}

func statusCode(err error) uint32 {
	var code scard.Error
	if errors.As(err, &code) {
		return uint32(code)
	}
	return 0
}

// TrailerMismatchError means the reader answered but without the 90 00
// success trailer at any recognised position.
type TrailerMismatchError struct {
	Response []byte
}

func (e *TrailerMismatchError) Error() string {
	return fmt.Sprintf("expected 90 00 trailer not found in response [%s]", FormatHex(e.Response))
}

// ClassificationLengthError means a status response is too short to read
// the tag identifying bytes from.
type ClassificationLengthError struct {
	Length   int
	Required int
}

func (e *ClassificationLengthError) Error() string {
	return fmt.Sprintf("status response too short for classification (%d bytes, need %d)", e.Length, e.Required)
}

// ConfigErrorKind tells which reader precondition failed.
type ConfigErrorKind int

const (
	NoReaders ConfigErrorKind = iota
	WrongModel
)

// ConfigurationError is a fatal reader setup problem. It is never retried.
type ConfigurationError struct {
	Kind   ConfigErrorKind
	Reader string
	Model  string
}

func (e *ConfigurationError) Error() string {
	switch e.Kind {
	case NoReaders:
		return "no readers found"
	case WrongModel:
		return fmt.Sprintf("reader %q does not match expected model %q", e.Reader, e.Model)
	default:
		return "reader configuration error"
	}
}

// IsServiceError returns true if err is or wraps a ServiceError.
func IsServiceError(err error) bool {
	var e *ServiceError
	return errors.As(err, &e)
}

// IsTrailerMismatch returns true if err is or wraps a TrailerMismatchError.
func IsTrailerMismatch(err error) bool {
	var e *TrailerMismatchError
	return errors.As(err, &e)
}

// IsClassificationLength returns true if err is or wraps a ClassificationLengthError.
func IsClassificationLength(err error) bool {
	var e *ClassificationLengthError
	return errors.As(err, &e)
}

// IsConfigurationError returns true if err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// ServiceCode returns the PC/SC status code carried by err, or 0.
func ServiceCode(err error) uint32 {
	var e *ServiceError
	if errors.As(err, &e) {
		return e.Code
	}
	return statusCode(err)
}
