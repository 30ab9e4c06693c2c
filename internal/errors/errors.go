// Package errors maps solver failures onto HTTP and JSON-RPC responses.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/copyleftdev/simplex/internal/lp"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

// ErrNotFound marks lookups of unknown solve sessions.
var ErrNotFound = stderrors.New("not found")

// APIError is an error that knows how it should be reported to a client.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Code is the JSON-RPC error code.
	Code int
	// Message is safe to show to clients.
	Message string
	// Err is the underlying error.
	Err error
	// Stack is captured when the error is created.
	Stack []string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var builder strings.Builder
	builder.WriteString(e.Message)
	if e.Err != nil {
		if builder.Len() > 0 {
			builder.WriteString(": ")
		}
		builder.WriteString(e.Err.Error())
	}
	return builder.String()
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(err error, format string, args ...interface{}) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidParams,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
		Stack:   getStackTrace(),
	}
}

// NotFound reports an unknown session or step.
func NotFound(format string, args ...interface{}) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    CodeInvalidParams,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrNotFound,
		Stack:   getStackTrace(),
	}
}

// Internal reports a server-side failure such as an unencodable response.
func Internal(err error, format string, args ...interface{}) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    CodeServerError,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
		Stack:   getStackTrace(),
	}
}

// FromSolver classifies an error returned by the lp package.
func FromSolver(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	e := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    CodeServerError,
		Message: "solve failed",
		Err:     err,
		Stack:   getStackTrace(),
	}
	switch {
	case stderrors.Is(err, lp.ErrShapeMismatch),
		stderrors.Is(err, lp.ErrEmptyProgram),
		stderrors.Is(err, lp.ErrUnsupportedRelation),
		stderrors.Is(err, lp.ErrInfeasibleStart):
		e.Status = http.StatusUnprocessableEntity
		e.Code = CodeInvalidParams
		e.Message = "invalid linear program"
	case stderrors.Is(err, lp.ErrNumericOverflow):
		e.Status = http.StatusUnprocessableEntity
		e.Code = CodeInvalidParams
		e.Message = "coefficients out of numeric range"
	case stderrors.Is(err, context.Canceled),
		stderrors.Is(err, context.DeadlineExceeded):
		e.Status = http.StatusRequestTimeout
		e.Message = "solve cancelled"
	case stderrors.Is(err, lp.ErrStepOutOfRange):
		e.Status = http.StatusNotFound
		e.Code = CodeInvalidParams
		e.Message = "step not found"
	case stderrors.Is(err, lp.ErrDidNotConverge):
		e.Status = http.StatusConflict
		e.Message = "solver did not converge"
	}
	return e
}

// StackTrace returns the stack captured when the error was created.
func (e *APIError) StackTrace() []string {
	return e.Stack
}

// WriteJSON writes {"error": ..., "status": ...} with e's status code.
func (e *APIError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  e.Error(),
		"status": e.Status,
	})
}

// getStackTrace returns the current stack trace as a slice of strings.
func getStackTrace() []string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // Skip runtime.Callers, getStackTrace, and the constructor
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") && !strings.Contains(frame.File, "internal/errors") {
			stack = append(stack, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return stack
}
