// Package errors defines the structured error type shared by mosaic packages.
//
// Every failure the frame pipeline can report carries an ErrorCode. Callers
// match on codes with errors.Is against the package sentinels (for example
// drawlist.ErrStaleFramePush) or with IsCode.
package errors

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Panel registry errors
	ErrCodeDuplicateRegistration ErrorCode = "DUPLICATE_REGISTRATION"
	ErrCodeNotRegistered         ErrorCode = "NOT_REGISTERED"
	ErrCodeScopeClaimed          ErrorCode = "SCOPE_CLAIMED"

	// Frame pipeline errors
	ErrCodeStaleFramePush     ErrorCode = "STALE_FRAME_PUSH"
	ErrCodePresentationFailed ErrorCode = "PRESENTATION_FAILED"
	ErrCodeBehaviorPanic      ErrorCode = "BEHAVIOR_PANIC"
	ErrCodeBehaviorFailed     ErrorCode = "BEHAVIOR_FAILED"
	ErrCodeAlreadyFlushed     ErrorCode = "ALREADY_FLUSHED"

	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Generic errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// fatalCodes are contract violations. They are never recovered in-process.
var fatalCodes = map[ErrorCode]bool{
	ErrCodeDuplicateRegistration: true,
	ErrCodeNotRegistered:         true,
	ErrCodeScopeClaimed:          true,
	ErrCodeStaleFramePush:        true,
	ErrCodeBehaviorPanic:         true,
	ErrCodeBehaviorFailed:        true,
	ErrCodeAlreadyFlushed:        true,
}

// Error represents a structured mosaic error
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Context    map[string]any
	Stack      []Frame
	Retryable  bool
	Fatal      bool
}

// Frame represents a stack frame
type Frame struct {
	Function string
	File     string
	Line     int
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
		Stack:   captureStack(2),
		Fatal:   fatalCodes[code],
	}
}

// Newf creates a structured error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	err := New(code, fmt.Sprintf(format, args...))
	err.Stack = captureStack(2)
	return err
}

// Wrap wraps an existing error with mosaic error context
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]any),
		Stack:      captureStack(2),
		Fatal:      fatalCodes[code],
	}
}

// Sentinel builds a stackless error used as an errors.Is target.
func Sentinel(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Fatal: fatalCodes[code]}
}

// WithContext adds context key-value pairs to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRetryable marks the error as retryable
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s: %v", k, e.Context[k]))
		}
		sb.WriteString("}")
	}

	if e.Underlying != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Underlying))
	}

	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// StackTrace returns a formatted stack trace
func (e *Error) StackTrace() string {
	var sb strings.Builder

	sb.WriteString("Stack trace:\n")
	for i, frame := range e.Stack {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, frame.String()))
		sb.WriteString(fmt.Sprintf("     %s:%d\n", frame.File, frame.Line))
	}

	return sb.String()
}

// String formats a stack frame
func (f Frame) String() string {
	return f.Function
}

func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr

	n := runtime.Callers(skip+1, pcs[:])
	if n == 0 {
		return nil
	}
	callers := runtime.CallersFrames(pcs[:n])
	frames := make([]Frame, 0, n)
	for {
		fr, more := callers.Next()
		frames = append(frames, Frame{
			Function: fr.Function,
			File:     fr.File,
			Line:     fr.Line,
		})
		if !more {
			break
		}
	}

	return frames
}

// IsCode checks if an error chain contains a specific error code
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if me, ok := err.(*Error); ok && me.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	me, ok := err.(*Error)
	if !ok {
		return ErrCodeInternal
	}

	return me.Code
}

// IsFatal reports whether err carries a contract-violation code.
func IsFatal(err error) bool {
	for err != nil {
		if me, ok := err.(*Error); ok && me.Fatal {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
