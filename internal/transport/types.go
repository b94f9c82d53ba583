package transport

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"rpcns/internal/jsonrpc"
)

// Sender delivers a JSON-RPC request to a node and returns its response.
// Transport failures are returned as errors; RPC-level failures arrive as
// a response carrying an error object.
type Sender interface {
	Send(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)
}

// SenderFunc adapts a function to the Sender interface
type SenderFunc func(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)

// Send calls f(ctx, req)
func (f SenderFunc) Send(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	return f(ctx, req)
}

// Closer is implemented by senders that hold connections
type Closer interface {
	Close() error
}

var requestID atomic.Int64

// NextID returns a process-wide unique request ID
func NextID() jsonrpc.ID {
	return jsonrpc.NewIDInt(requestID.Add(1))
}

// Call sends method with positional params and returns the raw result.
// An RPC error object is returned as *jsonrpc.Error.
func Call(ctx context.Context, sender Sender, method string, params ...interface{}) (json.RawMessage, error) {
	req, err := jsonrpc.NewRequest(method, params, NextID())
	if err != nil {
		return nil, err
	}

	resp, err := sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	return resp.Unwrap()
}
