// Package goerror carries the typed errors the HTTP layer turns into the
// {success:false, message, error} envelope.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by stores when a conditional write lost a race
	// or hit a unique key.
	ErrConflict = errors.New("resource conflict")
)

// Type buckets errors by who is at fault.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is the stable reason behind an error. It decides the HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeUnauthorized
	CodeTooManyRequest
	// CodeAlreadyExists is a signup for an email that already has an account.
	CodeAlreadyExists
	// CodeInvalidOrExpired covers one-time credentials that are wrong, used or expired.
	CodeInvalidOrExpired
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:         {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:    {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:     {"ERROR_CODE_INVALID_INPUT", http.StatusBadRequest},
	CodeNotFound:         {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeUnauthorized:     {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeTooManyRequest:   {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeAlreadyExists:    {"ERROR_CODE_ALREADY_EXISTS", http.StatusBadRequest},
	CodeInvalidOrExpired: {"ERROR_CODE_INVALID_OR_EXPIRED", http.StatusBadRequest},
}

func (c Code) String() string {
	if v, ok := codes[c]; ok {
		return v.name
	}

	return codes[CodeInternal].name
}

// Error wraps an optional cause with the message shown to the client.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
	wait    time.Duration
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType == TypeValidation:
		return "Validation error"
	case e.errType == TypeBusiness:
		return "Request rejected"
	default:
		return "Internal error"
	}
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

// Msg is the client-facing message.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields maps request field names to messages, e.g. "email" → "Invalid email address".
func (e *Error) Fields() map[string]string { return e.fields }

// RetryAfter is the wait hint of a rate limit error, zero otherwise.
func (e *Error) RetryAfter() time.Duration { return e.wait }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the code to an HTTP status.
func (e *Error) StatusCode() int {
	if v, ok := codes[e.code]; ok {
		return v.status
	}

	return http.StatusInternalServerError
}

func pairs(kv []string) map[string]string {
	if len(kv) < 2 {
		return nil
	}

	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}

	return m
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewServerMsg is NewServer with a message the client is allowed to see,
// e.g. "Failed to send verification email".
func NewServerMsg(err error, msg string) error {
	return &Error{err: err, msg: msg, errType: TypeServer, code: CodeInternal}
}

// NewBusiness rejects a well-formed request. Optional kv pairs attach
// field messages: NewBusiness(msg, CodeAlreadyExists, "email", msg).
func NewBusiness(msg string, code Code, kv ...string) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code, fields: pairs(kv)}
}

// NewTooManyRequest carries the wait hint surfaced as Retry-After.
func NewTooManyRequest(msg string, retryAfter time.Duration) error {
	return &Error{msg: msg, errType: TypeBusiness, code: CodeTooManyRequest, wait: retryAfter}
}

// NewInvalidInput wraps a validator error, or builds field messages from kv
// when err is nil. An odd kv is reported as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := pairs(kv)
	if fields == nil {
		fields = map[string]string{}
	}

	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports a body that could not be decoded.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}

	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
