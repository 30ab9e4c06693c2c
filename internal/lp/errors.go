package lp

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by *Error. Use errors.Is to test for them.
var (
	// ErrShapeMismatch means a constraint row has a different number of
	// coefficients than the program has variables.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrEmptyProgram means the program has no variables or no constraints.
	ErrEmptyProgram = errors.New("program needs at least one variable and one constraint")
	// ErrDidNotConverge means the pivot loop hit its iteration cap.
	ErrDidNotConverge = errors.New("did not converge")
	// ErrUnsupportedRelation is returned in strict mode for rows that are not "<=".
	ErrUnsupportedRelation = errors.New("unsupported constraint relation")
	// ErrInfeasibleStart is returned in strict mode when the all-slack basis
	// is not feasible (a negative right-hand side).
	ErrInfeasibleStart = errors.New("initial basis is infeasible")
	// ErrStepOutOfRange is returned when seeking outside a recorded history.
	ErrStepOutOfRange = errors.New("step index out of range")
	// ErrInvalidPivot is returned for a pivot position outside the
	// constraint rows and variable columns, or on a zero element.
	ErrInvalidPivot = errors.New("invalid pivot")
	// ErrNumericOverflow means a pivot left an infinite or NaN entry in the
	// tableau.
	ErrNumericOverflow = errors.New("numeric overflow")
)

// Error is a solver error with the operation and component that raised it.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying cause, usually one of the sentinels above.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		} else {
			msg = e.Err.Error()
		}
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, msg)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// newErrorf builds an *Error around a sentinel cause.
func newErrorf(cause error, format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// AsError reports whether err is (or wraps) an *Error and returns it.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
