// Package apperr defines the error taxonomy shared by the service
// clients and the chat engine. Every error that crosses a package
// boundary carries a Code so callers can branch without string
// matching.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error.
type Code string

const (
	// CodeInvalidArgument covers rejected input (4xx validation).
	CodeInvalidArgument Code = "invalid_argument"
	// CodeUnauthenticated covers bad credentials or a missing/expired token.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeNotFound covers a missing profile, chat or user.
	CodeNotFound Code = "not_found"
	// CodeAlreadyExists covers uniqueness conflicts (taken username).
	CodeAlreadyExists Code = "already_exists"
	// CodeUnavailable covers transport failures.
	CodeUnavailable Code = "unavailable"
	// CodeProtocol covers unexpected live-channel payloads.
	CodeProtocol Code = "protocol"
	// CodeInternal covers everything the client cannot act on.
	CodeInternal Code = "internal"
)

// AppError is the concrete error type behind the constructors below.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is lets errors.Is match two AppErrors by code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error    { return New(CodeInvalidArgument, msg) }
func Unauthorized(msg string) error  { return New(CodeUnauthenticated, msg) }
func NotFound(msg string) error      { return New(CodeNotFound, msg) }
func AlreadyExists(msg string) error { return New(CodeAlreadyExists, msg) }
func Internal(msg string) error      { return New(CodeInternal, msg) }

func Unavailable(msg string, cause error) error {
	return Wrap(CodeUnavailable, msg, cause)
}

func Protocol(msg string, cause error) error {
	return Wrap(CodeProtocol, msg, cause)
}

// CodeOf extracts the code from err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
