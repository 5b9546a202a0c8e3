package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, machine-readable class of a request failure.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"       // payload rejected before leaving the process
	KindTransport       ErrorKind = "transport"        // connection error or non-2xx status
	KindDecode          ErrorKind = "decode"           // response body was not a JSON object
	KindAuthUnavailable ErrorKind = "auth_unavailable" // admin or user token could not be obtained
)

// Error codes carried in the uniform result when the failure is local.
const (
	CodeValidation      = 400
	CodeAuthUnavailable = 500
	CodeDecode          = 500
)

// ErrTokenUnavailable is the cause of every KindAuthUnavailable error.
var ErrTokenUnavailable = errors.New("token unavailable")

// RequestError is the uniform failure value returned across the client
// boundary. Code and Message mirror the remote service's errCode/errMsg so the
// caller sees one shape whether the failure was local or remote.
type RequestError struct {
	Kind    ErrorKind
	Code    int
	Message string
	Detail  string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s, code %d): %s", e.Message, e.Kind, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s (%s, code %d)", e.Message, e.Kind, e.Code)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Result renders the error in the remote service's envelope shape.
func (e *RequestError) Result() Result {
	return ErrorResult(e.Code, e.Message, e.Detail)
}

// NewValidationError wraps a validator failure.
func NewValidationError(msg string, err error) *RequestError {
	return &RequestError{Kind: KindValidation, Code: CodeValidation, Message: msg, Detail: err.Error(), Err: err}
}

// NewAuthUnavailableError reports that a token for kind could not be obtained.
func NewAuthUnavailableError(kind TokenKind) *RequestError {
	return &RequestError{
		Kind:    KindAuthUnavailable,
		Code:    CodeAuthUnavailable,
		Message: fmt.Sprintf("failed to obtain %s token", kind),
		Err:     ErrTokenUnavailable,
	}
}

// KindOf returns the ErrorKind of err, or "" when err is not a RequestError.
func KindOf(err error) ErrorKind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return ""
}

// AsResult collapses a (Result, error) pair into the single uniform shape
// the façade layer hands back to its callers.
func AsResult(res Result, err error) Result {
	if err == nil {
		return res
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Result()
	}
	return Result{"errCode": CodeAuthUnavailable, "errMsg": "request failed", "errDlt": err.Error()}
}
