package errs

import (
	"fmt"
	"net/http"
	"strings"

	"lostfound/internal/pkg/logx"
)

// CustomError is the error type returned by handlers and services to the HTTP and
// WebSocket layers. It carries a business code, a client-facing message and the HTTP
// status the code maps to.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is reports whether target is a CustomError with the same code, so errors.Is works
// against values built with NewError.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	return ok && t.Code == e.Code
}

// NewError builds a *CustomError for a registered code.
//
// For ErrUnknown, a first detail of type error is logged and never shown to the client.
// For other codes, details are printf arguments for a message template containing '%'.
// Unregistered codes degrade to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("unknown error code %d", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		template = errorMap[ErrUnknown]
	}

	customErr := template
	if customErr.Status == 0 {
		customErr.Status = http.StatusBadRequest
	}

	if len(details) == 0 {
		return &customErr
	}

	if customErr.Code == ErrUnknown {
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Handling ErrUnknown with underlying error")
		}
		return &customErr
	}

	if strings.Contains(customErr.Message, "%") {
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	} else {
		logx.Warn("Details provided for an error without placeholders; ignored", "code", code)
	}

	return &customErr
}

// Internal wraps an unexpected error as ErrUnknown, logging the cause.
func Internal(cause error) *CustomError {
	return NewError(ErrUnknown, cause)
}
