package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported    ErrorCode = "NOT_SUPPORTED"
	CodeParse           ErrorCode = "PARSE_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxSymbol    = "symbol"
	CtxModule    = "module"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...interface{}) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a context value, wrapping non-domain errors as internal.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Internal reports an invariant violation inside the resolver core. It panics
// with a CodeInternal DomainError; session boundaries convert it back with
// Recover.
func Internal(format string, args ...interface{}) {
	panic(&DomainError{Code: CodeInternal, Message: fmt.Sprintf(format, args...)})
}

// Recover converts a panic raised by Internal into an error stored in *errp.
// Other panics are re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if de, ok := r.(*DomainError); ok && de.Code == CodeInternal {
		*errp = de
		return
	}
	panic(r)
}

// Message returns the human-readable message of err without code or context.
func Message(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		if de.Err != nil && de.Message == "" {
			return de.Err.Error()
		}
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
