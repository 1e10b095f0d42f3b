package ierr

import (
	"encoding/json"
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorCodeInvalidArgument    ErrorCode = "InvalidArgument"
	ErrorCodeNotFound           ErrorCode = "NotFound"
	ErrorCodeAlreadyExists      ErrorCode = "AlreadyExists"
	ErrorCodeFailedPrecondition ErrorCode = "FailedPrecondition"
	ErrorCodePermissionDenied   ErrorCode = "PermissionDenied"
	ErrorCodeUnauthenticated    ErrorCode = "Unauthenticated"
	ErrorCodeInternal           ErrorCode = "Internal"
)

type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`

	cause error
}

func New(code ErrorCode, cause error) Error {
	return Error{
		Code:    code,
		Message: cause.Error(),
		cause:   cause,
	}
}

func Newf(code ErrorCode, format string, args ...any) Error {
	return New(code, fmt.Errorf(format, args...))
}

func (e Error) Error() string {
	return string(e.Code) + ": " + e.cause.Error()
}

func (e Error) Unwrap() error {
	return e.cause
}

// CodeOf returns the code carried by err, or Internal when err is not a
// coded error.
func CodeOf(err error) ErrorCode {
	var coded Error
	if errors.As(err, &coded) {
		return coded.Code
	}

	return ErrorCodeInternal
}
