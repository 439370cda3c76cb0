// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and the error taxonomy shared by the event loop,
// the shard workers and the server facade.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the module.
var (
	ErrQueueFull       = errors.New("shard queue is full")
	ErrQueueClosed     = errors.New("shard queue is closed")
	ErrSessionClosed   = errors.New("session is closed")
	ErrServerClosed    = errors.New("server is closed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSupported    = errors.New("operation not supported")
	ErrWriteTimeout    = errors.New("write timed out")
)

// ErrorCode classifies failures by how far they are allowed to propagate.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	// ErrCodeTransient is would-block or interrupted; retried silently.
	ErrCodeTransient
	// ErrCodePeerClosed is terminal for one connection only.
	ErrCodePeerClosed
	// ErrCodeFatalSocket is terminal for one connection only and logged.
	ErrCodeFatalSocket
	// ErrCodeQueueFull triggers the configured admission policy.
	ErrCodeQueueFull
	// ErrCodeStartup is fatal to the whole process.
	ErrCodeStartup
	ErrCodeInvalidArgument
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeTransient:
		return "transient"
	case ErrCodePeerClosed:
		return "peer_closed"
	case ErrCodeFatalSocket:
		return "fatal_socket"
	case ErrCodeQueueFull:
		return "queue_full"
	case ErrCodeStartup:
		return "startup"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapError creates a structured error around cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	e := NewError(code, message)
	e.Err = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf extracts the ErrorCode carried by err, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, ErrQueueFull):
		return ErrCodeQueueFull
	case errors.Is(err, ErrInvalidArgument):
		return ErrCodeInvalidArgument
	}
	return ErrCodeInternal
}
