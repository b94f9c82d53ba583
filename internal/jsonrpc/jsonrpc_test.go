package jsonrpc

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewRequest_NilParamsEncodesEmptyList(t *testing.T) {
	req, err := NewRequest("rpc_methods", nil, NewIDInt(1))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if string(req.Params) != "[]" {
		t.Errorf("Params = %s, want []", req.Params)
	}
	if req.JSONRPC != Version {
		t.Errorf("JSONRPC = %s, want %s", req.JSONRPC, Version)
	}
}

func TestNewRequest_SingleArgument(t *testing.T) {
	req, err := NewRequest("chain_getBlock", []interface{}{"0xhash"}, NewIDInt(7))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	data, err := req.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	want := `{"jsonrpc":"2.0","method":"chain_getBlock","params":["0xhash"],"id":7}`
	if string(data) != want {
		t.Errorf("Bytes = %s, want %s", data, want)
	}
}

func TestID_Int64(t *testing.T) {
	var resp Response
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":42,"result":"0x1"}`), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	n, ok := resp.ID.Int64()
	if !ok || n != 42 {
		t.Errorf("Int64 = %d, %v, want 42, true", n, ok)
	}
	if _, ok := NewIDString("abc").Int64(); ok {
		t.Error("string ID should not convert to int64")
	}
}

func TestResponse_Unwrap(t *testing.T) {
	resp := NewErrorResponse(NewIDInt(1), NewError(CodeMethodNotFound, "Method not found"))
	_, err := resp.Unwrap()
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("Unwrap error = %v, want *Error", err)
	}
	if rpcErr.Code != CodeMethodNotFound {
		t.Errorf("Code = %d, want %d", rpcErr.Code, CodeMethodNotFound)
	}

	ok := NewResponseRaw(NewIDInt(2), json.RawMessage(`{"block":{}}`))
	result, err := ok.Unwrap()
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if string(result) != `{"block":{}}` {
		t.Errorf("result = %s", result)
	}
}

func TestRequest_Clone(t *testing.T) {
	req, _ := NewRequest("state_getStorage", []interface{}{"0x26aa"}, NewIDString("a"))
	clone := req.Clone()
	clone.ID = NewIDInt(9)
	clone.Params[2] = 'X'

	if req.ID.Value() != "a" {
		t.Errorf("original ID = %v, want a", req.ID.Value())
	}
	if string(req.Params) != `["0x26aa"]` {
		t.Errorf("original Params = %s, want unchanged", req.Params)
	}
}
