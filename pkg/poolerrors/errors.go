// Package poolerrors provides structured error handling for blockpool
package poolerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInvalidParameters represents rejected pool geometry at creation
	ErrorTypeInvalidParameters ErrorType = "invalid_parameters"
	// ErrorTypeAllocationFailure represents a backing region that could not be reserved
	ErrorTypeAllocationFailure ErrorType = "allocation_failure"
	// ErrorTypeExhausted represents an allocation attempt with no free slots
	ErrorTypeExhausted ErrorType = "exhausted"
	// ErrorTypeInvalidArgument represents a release with a nil or empty pointer
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	// ErrorTypeForeignPointer represents a release with an address outside the region
	ErrorTypeForeignPointer ErrorType = "foreign_pointer"
	// ErrorTypeMisalignedPointer represents an in-region address off a slot boundary
	ErrorTypeMisalignedPointer ErrorType = "misaligned_pointer"
	// ErrorTypeDoubleFree represents a release of a slot that is already free
	ErrorTypeDoubleFree ErrorType = "double_free"
	// ErrorTypeClosed represents an operation on a destroyed pool
	ErrorTypeClosed ErrorType = "closed"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRecoverable returns true if the error is a condition callers are
// expected to branch on rather than crash on.
func IsRecoverable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeExhausted, ErrorTypeForeignPointer, ErrorTypeMisalignedPointer, ErrorTypeDoubleFree:
		return true
	default:
		return false
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
