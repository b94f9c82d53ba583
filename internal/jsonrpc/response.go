package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Response carries either a result or an error object
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      ID              `json:"id"`
}

// NewResponseRaw creates a successful response
func NewResponseRaw(id ID, result json.RawMessage) *Response {
	return &Response{JSONRPC: Version, Result: result, ID: id}
}

// NewErrorResponse creates a failed response
func NewErrorResponse(id ID, err *Error) *Response {
	return &Response{JSONRPC: Version, Error: err, ID: id}
}

// ParseResponse decodes a single response
func ParseResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Response) HasError() bool {
	return r.Error != nil
}

// ResultIsNull reports a missing or null result
func (r *Response) ResultIsNull() bool {
	return r == nil || len(r.Result) == 0 || bytes.Equal(r.Result, []byte("null"))
}

func (r *Response) Bytes() ([]byte, error) {
	return json.Marshal(r)
}

// Unwrap returns the result, or the error object as a Go error
func (r *Response) Unwrap() (json.RawMessage, error) {
	if r.Error != nil {
		return nil, r.Error
	}
	return r.Result, nil
}

// GetResultAs decodes the result into v; a missing result leaves v untouched
func (r *Response) GetResultAs(v interface{}) error {
	if r.Result == nil {
		return nil
	}
	return json.Unmarshal(r.Result, v)
}
