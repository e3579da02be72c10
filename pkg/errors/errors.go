package errors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnauthorized            Code = "unauthorized"
	CodeServerRejected          Code = "server_rejected"
	CodeNetworkUnavailable      Code = "network_unavailable"
	CodeMalformedResponse       Code = "malformed_response"
	CodeInvalidCredentialFormat Code = "invalid_credential_format"
)

const (
	CodeUnknown          Code = "unknown"
	CodeInvalidArgument  Code = "invalid_argument"
	CodeStoreUnavailable Code = "store_unavailable"
)

var ErrMissingTransport = errors.New("newsclient: transport is required")

// Error is a classified failure. HTTPStatus is set when the server responded
// with a transport-level status, and Raw carries the response body that
// produced the classification.
type Error struct {
	Code       Code
	Message    string
	HTTPStatus int
	Raw        []byte
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.Message != "" {
		if e.HTTPStatus > 0 {
			return fmt.Sprintf("%s (status %d)", e.Message, e.HTTPStatus)
		}
		return e.Message
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsCode(err error, code Code) bool {
	var typed *Error
	if !errors.As(err, &typed) {
		return false
	}
	return typed.Code == code
}

// AsError unwraps err into the package's typed error, or nil when err does
// not carry one.
func AsError(err error) *Error {
	var typed *Error
	if !errors.As(err, &typed) {
		return nil
	}
	return typed
}

func CodeOf(err error) Code {
	typed := AsError(err)
	if typed == nil {
		return CodeUnknown
	}
	return typed.Code
}
