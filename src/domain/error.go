package domain

import (
	"errors"
	"net/http"
)

// ErrorCode names a class of failure and the HTTP status it maps to
type ErrorCode struct {
	Name       string
	HTTPStatus int
}

var (
	ErrorCodeParameterInvalid     = ErrorCode{Name: "PARAMETER_INVALID", HTTPStatus: http.StatusBadRequest}
	ErrorCodeResourceNotFound     = ErrorCode{Name: "RESOURCE_NOT_FOUND", HTTPStatus: http.StatusNotFound}
	ErrorCodeAuthPermissionDenied = ErrorCode{Name: "AUTH_PERMISSION_DENIED", HTTPStatus: http.StatusForbidden}
	ErrorCodeAuthNotAuthenticated = ErrorCode{Name: "AUTH_NOT_AUTHENTICATED", HTTPStatus: http.StatusUnauthorized}
	ErrorCodeInternalProcess      = ErrorCode{Name: "INTERNAL_PROCESS", HTTPStatus: http.StatusInternalServerError}

	// Upstream challenge API failures
	ErrorCodeRemoteProcess        = ErrorCode{Name: "REMOTE_PROCESS_ERROR", HTTPStatus: http.StatusBadGateway}
	ErrorCodeRemoteResponseDecode = ErrorCode{Name: "REMOTE_RESPONSE_DECODE", HTTPStatus: http.StatusBadGateway}
	ErrorCodeRemoteSchemaInvalid  = ErrorCode{Name: "REMOTE_SCHEMA_INVALID", HTTPStatus: http.StatusBadGateway}
)

// DomainError wraps an underlying error with a code, a message safe to show
// to clients and optional structured detail.
type DomainError struct {
	code      ErrorCode
	err       error
	clientMsg string
	detail    interface{}
}

type ErrorOption func(*DomainError)

// WithMsg sets the message shown to clients
func WithMsg(msg string) ErrorOption {
	return func(e *DomainError) {
		e.clientMsg = msg
	}
}

// WithDetail attaches structured data returned alongside the message
func WithDetail(detail interface{}) ErrorOption {
	return func(e *DomainError) {
		e.detail = detail
	}
}

func NewError(code ErrorCode, err error, opts ...ErrorOption) error {
	e := DomainError{code: code, err: err}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e DomainError) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.clientMsg != "":
		return e.clientMsg
	default:
		return e.Name()
	}
}

func (e DomainError) Unwrap() error {
	return e.err
}

// Name returns the error code name; a zero DomainError reports INTERNAL_PROCESS.
func (e DomainError) Name() string {
	if e.code.Name == "" {
		return ErrorCodeInternalProcess.Name
	}
	return e.code.Name
}

func (e DomainError) Code() ErrorCode {
	if e.code.Name == "" {
		return ErrorCodeInternalProcess
	}
	return e.code
}

func (e DomainError) ClientMsg() string {
	return e.clientMsg
}

func (e DomainError) Detail() interface{} {
	return e.detail
}

func (e DomainError) HTTPStatus() int {
	if e.code.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.code.HTTPStatus
}

// IsErrorCode reports whether err carries the given code
func IsErrorCode(err error, code ErrorCode) bool {
	var domainErr DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code() == code
}

// ValidationError identifies the first schema violation in a document
type ValidationError struct {
	JSONPointer string `json:"json_pointer"`
	Message     string `json:"message"`
}
