package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rpcns/internal/catalog"
	"rpcns/internal/config"
	"rpcns/internal/jsonrpc"
	"rpcns/internal/namespace"
)

// newNode serves rpc_methods plus a few fixed results over HTTP
func newNode(t *testing.T, methods []string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		req, err := jsonrpc.ParseRequest(body)
		if err != nil {
			t.Errorf("ParseRequest: %v", err)
			return
		}
		if calls != nil {
			calls.Add(1)
		}

		var resp *jsonrpc.Response
		switch req.Method {
		case "rpc_methods":
			result, _ := json.Marshal(map[string]interface{}{"version": 1, "methods": methods})
			resp = jsonrpc.NewResponseRaw(req.ID, result)
		case "system_chain":
			resp = jsonrpc.NewResponseRaw(req.ID, json.RawMessage(`"Development"`))
		case "chain_getBlockHash":
			resp = jsonrpc.NewResponseRaw(req.ID, json.RawMessage(`"0x01"`))
		default:
			resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrMethodNotFound)
		}
		data, _ := resp.Bytes()
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testNetwork() catalog.Network {
	return catalog.Network{
		Name: "dev",
		Catalog: catalog.Catalog{
			{Namespace: "chain", Endpoints: []string{"getBlock", "getBlockHash"}},
			{Namespace: "system", Endpoints: []string{"chain", "name"}},
		},
		Supported: []string{"chain_getBlockHash", "system_chain"},
	}
}

func TestNew_UsesStaticSupportedList(t *testing.T) {
	srv := newNode(t, nil, nil)
	sender, err := NewSender(context.Background(), config.Default(), &config.NetworkConfig{
		Name: "dev", Transport: config.TransportHTTP, RPCURL: srv.URL,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}

	c := New(testNetwork(), sender, zerolog.Nop())
	defer c.Close()

	if c.Network().Name != "dev" {
		t.Errorf("Network = %s, want dev", c.Network().Name)
	}

	result, err := c.API().Call(context.Background(), "system", "chain", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(result) != `"Development"` {
		t.Errorf("result = %s", result)
	}

	chain := c.Chain()
	if chain.GetBlock != nil {
		t.Error("GetBlock should be nil")
	}
	if chain.GetBlockHash == nil {
		t.Fatal("GetBlockHash should be bound")
	}
	if _, err := chain.GetBlockHash(context.Background(), 1); err != nil {
		t.Errorf("GetBlockHash: %v", err)
	}

	system := c.System()
	if system.Chain == nil || system.Name != nil {
		t.Errorf("system binding = chain:%v name:%v", system.Chain != nil, system.Name != nil)
	}
}

func TestNewWithDiscovery(t *testing.T) {
	srv := newNode(t, []string{"chain_getBlock", "system_name", "rpc_methods"}, nil)
	sender, err := NewSender(context.Background(), config.Default(), &config.NetworkConfig{
		Name: "dev", Transport: config.TransportHTTP, RPCURL: srv.URL,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}

	c, err := NewWithDiscovery(context.Background(), testNetwork(), sender, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWithDiscovery: %v", err)
	}
	defer c.Close()

	chain, _ := c.API().Namespace("chain")
	if !chain.Has("getBlock") || chain.Has("getBlockHash") {
		t.Errorf("chain endpoints = %v, want [getBlock]", chain.Names())
	}
	system, _ := c.API().Namespace("system")
	if !system.Has("name") || system.Has("chain") {
		t.Errorf("system endpoints = %v, want [name]", system.Names())
	}
}

func TestNewWithDiscovery_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender, _ := NewSender(context.Background(), config.Default(), &config.NetworkConfig{
		Name: "dev", Transport: config.TransportHTTP, RPCURL: srv.URL,
	}, zerolog.Nop())

	if _, err := NewWithDiscovery(context.Background(), testNetwork(), sender, zerolog.Nop()); err == nil {
		t.Error("expected discovery error")
	}
}

func TestFromConfig_CachedPreset(t *testing.T) {
	var calls atomic.Int32
	srv := newNode(t, nil, &calls)

	cfg, err := config.Parse([]byte(`{
		"cache": {"enabled": true},
		"networks": [{"name": "polkadot", "rpcUrl": "` + srv.URL + `"}]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	c, err := FromConfig(context.Background(), cfg, "polkadot", zerolog.Nop())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		if _, err := c.API().Call(context.Background(), "system", "chain", nil); err != nil {
			t.Fatalf("Call: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("node calls = %d, want 1", got)
	}

	if _, err := FromConfig(context.Background(), cfg, "kusama", zerolog.Nop()); err == nil {
		t.Error("expected error for unconfigured network")
	}
}

func TestLoadNetwork_Overrides(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	supportedPath := filepath.Join(dir, "supported.yaml")
	os.WriteFile(catalogPath, []byte("chain:\n  - getBlock\n  - getHeader\n"), 0o644)
	os.WriteFile(supportedPath, []byte("- chain_getHeader\n"), 0o644)

	network, err := LoadNetwork(&config.NetworkConfig{
		Name:          "custom",
		Preset:        "polkadot",
		CatalogPath:   catalogPath,
		SupportedPath: supportedPath,
	})
	if err != nil {
		t.Fatalf("LoadNetwork: %v", err)
	}
	if got := network.Catalog.Namespaces(); len(got) != 1 || got[0] != "chain" {
		t.Errorf("Namespaces = %v, want [chain]", got)
	}
	if len(network.Supported) != 1 || network.Supported[0] != "chain_getHeader" {
		t.Errorf("Supported = %v, want [chain_getHeader]", network.Supported)
	}

	if _, err := LoadNetwork(&config.NetworkConfig{Name: "x", Preset: "unknown"}); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestFromConfig_WSRequestTimeout(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	cfg, err := config.Parse([]byte(`{
		"requestTimeout": 200,
		"networks": [{"name": "polkadot", "transport": "ws", "wsUrl": "` + wsURL + `"}]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	c, err := FromConfig(context.Background(), cfg, "polkadot", zerolog.Nop())
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer c.Close()

	start := time.Now()
	_, err = c.API().Call(context.Background(), "system", "name", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call returned after %v, want about 200ms", elapsed)
	}
}

func TestClient_TypedAccessorsBind(t *testing.T) {
	network, err := catalog.Preset("polkadot")
	if err != nil {
		t.Fatalf("Preset: %v", err)
	}
	c := New(*network, &nullSender{}, zerolog.Nop())

	var chain namespace.ChainAPI
	if err := namespace.BindTable(c.API(), "chain", &chain); err != nil {
		t.Fatalf("BindTable chain: %v", err)
	}
	var system namespace.SystemAPI
	if err := namespace.BindTable(c.API(), "system", &system); err != nil {
		t.Fatalf("BindTable system: %v", err)
	}

	if c.Chain().GetBlock == nil || c.Chain().GetHeader == nil {
		t.Error("Chain accessors should be bound on polkadot")
	}
	if c.System().Name == nil || c.System().Health == nil {
		t.Error("System accessors should be bound on polkadot")
	}
}

// nullSender answers every request with null
type nullSender struct{}

func (nullSender) Send(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	return jsonrpc.NewResponseRaw(req.ID, json.RawMessage(`null`)), nil
}
