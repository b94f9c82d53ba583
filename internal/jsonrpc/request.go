package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Request is an outgoing call with positional params
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      ID              `json:"id"`
}

// NewRequest encodes params as a positional list.
// A nil params value produces [], never JSON null.
func NewRequest(method string, params []interface{}, id ID) (*Request, error) {
	if params == nil {
		params = []interface{}{}
	}

	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	return &Request{
		JSONRPC: Version,
		Method:  method,
		Params:  encoded,
		ID:      id,
	}, nil
}

// ParseRequest decodes a single request
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Clone returns a copy that shares no params buffer with r
func (r *Request) Clone() *Request {
	clone := *r
	if r.Params != nil {
		clone.Params = append(json.RawMessage(nil), r.Params...)
	}
	return &clone
}

func (r *Request) Bytes() ([]byte, error) {
	return json.Marshal(r)
}
