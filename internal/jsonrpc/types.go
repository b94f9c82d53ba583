package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC version
const Version = "2.0"

// Error codes a Substrate node answers with
const (
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// ID is a request ID: a string, a number or null
type ID struct {
	value interface{}
}

// NewIDString creates a string ID
func NewIDString(s string) ID {
	return ID{value: s}
}

// NewIDInt creates a numeric ID
func NewIDInt(n int64) ID {
	return ID{value: n}
}

// Value returns the underlying value
func (id ID) Value() interface{} {
	return id.value
}

// Int64 returns the numeric value of the ID.
// Numbers decoded from JSON arrive as float64 and are converted.
func (id ID) Int64() (int64, bool) {
	switch v := id.value.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &id.value)
}

// Error is the error object of a failed call
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("RPC error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// NewError creates an error object
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrMethodNotFound = NewError(CodeMethodNotFound, "Method not found")
	ErrInternal       = NewError(CodeInternalError, "Internal error")
)
