package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rpcns/internal/jsonrpc"
)

// echoResult answers every request with {"method":..., "params":...}
func echoResult(req *jsonrpc.Request) *jsonrpc.Response {
	result, _ := json.Marshal(map[string]interface{}{
		"method": req.Method,
		"params": req.Params,
	})
	return jsonrpc.NewResponseRaw(req.ID, result)
}

func TestHTTPSender_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		req, err := jsonrpc.ParseRequest(body)
		if err != nil {
			t.Errorf("ParseRequest: %v", err)
			return
		}
		data, _ := echoResult(req).Bytes()
		w.Write(data)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, 5*time.Second, zerolog.Nop())
	defer s.Close()

	result, err := Call(context.Background(), s, "chain_getBlock", "0xhash")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	var got struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(result, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Method != "chain_getBlock" || string(got.Params) != `["0xhash"]` {
		t.Errorf("server saw %s %s", got.Method, got.Params)
	}
}

func TestHTTPSender_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, 5*time.Second, zerolog.Nop())
	_, err := Call(context.Background(), s, "system_name")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("err = %v, want HTTP 429 error", err)
	}
}

func TestCall_RPCError(t *testing.T) {
	sender := SenderFunc(func(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrMethodNotFound), nil
	})

	_, err := Call(context.Background(), sender, "chain_unknown")
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc.CodeMethodNotFound {
		t.Errorf("err = %v, want method not found", err)
	}
}

func newWSServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			req, err := jsonrpc.ParseRequest(data)
			if err != nil {
				return
			}
			out, _ := echoResult(req).Bytes()
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}))
}

func TestWSSender_Send(t *testing.T) {
	srv := newWSServer(t)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewWSSender(url, 0, 5*time.Second, 0, zerolog.Nop())
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	req, _ := jsonrpc.NewRequest("chain_getHeader", []interface{}{"0xabc"}, jsonrpc.NewIDString("client-id"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := s.Send(ctx, req)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.ID.Value() != "client-id" {
		t.Errorf("ID = %v, want client-id", resp.ID.Value())
	}
	if !strings.Contains(string(resp.Result), "chain_getHeader") {
		t.Errorf("Result = %s", resp.Result)
	}
}

func TestWSSender_SendAfterClose(t *testing.T) {
	srv := newWSServer(t)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewWSSender(url, 0, 5*time.Second, 0, zerolog.Nop())
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	s.Close()

	if s.Connected() {
		t.Error("Connected = true after Close")
	}
	req, _ := jsonrpc.NewRequest("system_name", nil, NextID())
	if _, err := s.Send(context.Background(), req); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

// newWSServerFunc upgrades the connection and hands every request to handle
func newWSServerFunc(t *testing.T, handle func(conn *websocket.Conn, req *jsonrpc.Request) bool) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			req, err := jsonrpc.ParseRequest(data)
			if err != nil {
				return
			}
			if !handle(conn, req) {
				return
			}
		}
	}))
}

func TestWSSender_RequestTimeout(t *testing.T) {
	srv := newWSServerFunc(t, func(conn *websocket.Conn, req *jsonrpc.Request) bool {
		return true
	})
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewWSSender(url, 100*time.Millisecond, 5*time.Second, 0, zerolog.Nop())
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	start := time.Now()
	_, err := Call(context.Background(), s, "system_name")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Send returned after %v, want about 100ms", elapsed)
	}
	if !s.Connected() {
		t.Error("a timed out request should not drop the connection")
	}
}

func TestWSSender_CallerDeadlineWins(t *testing.T) {
	srv := newWSServerFunc(t, func(conn *websocket.Conn, req *jsonrpc.Request) bool {
		return true
	})
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewWSSender(url, time.Minute, 5*time.Second, 0, zerolog.Nop())
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := Call(ctx, s, "system_name"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestWSSender_DroppedConnectionFailsPending(t *testing.T) {
	srv := newWSServerFunc(t, func(conn *websocket.Conn, req *jsonrpc.Request) bool {
		return false
	})
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewWSSender(url, 0, 5*time.Second, 0, zerolog.Nop())
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Call(ctx, s, "chain_getBlock", "0xhash")
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("err = %v, want ErrConnectionClosed", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Connected() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Connected() {
		t.Error("Connected = true after the server dropped the connection")
	}
}
