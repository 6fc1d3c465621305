// Package goerror carries the structured errors that usecases return and the
// router renders: a public message, a stable code and optional field details.
package goerror

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")

	// ErrRetryable marks a transient store failure (serialization, deadlock, lost CAS).
	ErrRetryable = errors.New("transient failure, retry")
)

// Kind says who is at fault.
type Kind uint8

const (
	KindServer Kind = iota
	KindBusiness
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindBusiness:
		return "business"
	case KindValidation:
		return "validation"
	default:
		return "server"
	}
}

// Code is the stable, client visible identifier of a failure.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	// CodeTimeout is retryable by the caller.
	CodeTimeout
	// CodeExpired covers lapsed coupons and login sessions.
	CodeExpired
	// CodeQuotaExceeded is a metered action beyond the plan limit.
	CodeQuotaExceeded
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusGatewayTimeout},
	CodeExpired:        {"ERROR_CODE_EXPIRED", http.StatusGone},
	CodeQuotaExceeded:  {"ERROR_CODE_QUOTA_EXCEEDED", http.StatusPaymentRequired},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Status maps the code onto an HTTP status.
func (c Code) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Error wraps an optional cause. Only msg and fields ever reach the client;
// the cause is for logs.
type Error struct {
	cause  error
	msg    string
	kind   Kind
	code   Code
	fields map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return e.cause.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.code.String()
	}
}

func (e *Error) Unwrap() error             { return e.cause }
func (e *Error) Msg() string               { return e.msg }
func (e *Error) Kind() Kind                { return e.kind }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) StatusCode() int           { return e.code.Status() }

// pairs turns k1, v1, k2, v2 into a map. A trailing odd key is ignored.
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

// NewServer hides err behind a generic message. A deadline or cancellation in
// the chain becomes CodeTimeout.
func NewServer(err error) error {
	if IsTimeout(err) {
		return &Error{cause: err, msg: "Request timed out, please retry", kind: KindServer, code: CodeTimeout}
	}
	return &Error{cause: err, msg: "Internal server error", kind: KindServer, code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, kind: KindBusiness, code: code}
}

// NewBusinessWithFields attaches details such as the current usage when a
// quota is exhausted.
func NewBusinessWithFields(msg string, code Code, kv ...string) error {
	return &Error{msg: msg, kind: KindBusiness, code: code, fields: pairs(kv)}
}

// NewInvalidInput reports a rejected field. With a non-nil err (typically a
// validator error) the field details come from err; otherwise from kv.
// An odd kv list is a programming error and is reported as a format error.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{cause: err, msg: "Validation error", kind: KindValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}
	return &Error{msg: "Validation error", kind: KindValidation, code: CodeInvalidInput, fields: pairs(kv)}
}

// NewInvalidFormat reports an undecodable request. The first msg, if any,
// replaces the default message.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, kind: KindValidation, code: CodeInvalidFormat}
}

func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// IsCode reports whether some *Error in the chain carries code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.code == code
}
