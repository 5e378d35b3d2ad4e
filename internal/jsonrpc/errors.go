package jsonrpc

import (
	"fmt"

	"github.com/ggoodman/ez-mcp/capability"
)

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	ErrorCodeInternalError ErrorCode = -32603
	// ErrorCodeResourceNotFound is the MCP code for a resources/read miss.
	ErrorCodeResourceNotFound ErrorCode = -32002
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewError builds an error object.
func NewError(code ErrorCode, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// FailureData is the data member attached to errors derived from a dispatch
// failure.
type FailureData struct {
	Category capability.Category `json:"category"`
}

// FromFailure converts a dispatch failure into a JSON-RPC error. notFound is
// the code used for the NotFound category, which differs between resources
// and the other kinds.
func FromFailure(f *capability.Failure, notFound ErrorCode) *Error {
	code := ErrorCodeInternalError
	switch f.Category {
	case capability.NotFound:
		code = notFound
	case capability.InvalidArguments:
		code = ErrorCodeInvalidParams
	}
	return NewError(code, f.Reason, FailureData{Category: f.Category})
}
