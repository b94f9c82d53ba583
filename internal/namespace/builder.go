// Package namespace builds the per-network table of callable RPC endpoints.
//
// A table is derived once from a static catalog (namespace -> endpoint names)
// and the set of fully-qualified identifiers a network supports. Every entry
// forwards to a transport.Sender as
//
//	{"method": "<namespace>_<endpoint>", "params": [arg]}
//
// Endpoints the network does not support are left out of the table entirely.
package namespace

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"rpcns/internal/catalog"
	"rpcns/internal/jsonrpc"
	"rpcns/internal/transport"
)

// Func invokes one endpoint with a single argument and returns the raw result
type Func func(ctx context.Context, arg interface{}) (json.RawMessage, error)

// Build creates the namespace table for a catalog filtered by the supported set.
// It performs no I/O.
func Build(cat catalog.Catalog, supported catalog.SupportedSet, sender transport.Sender) *Table {
	return BuildWithLogger(cat, supported, sender, zerolog.Nop())
}

// BuildWithLogger is Build with diagnostics for skipped and duplicate endpoints
func BuildWithLogger(cat catalog.Catalog, supported catalog.SupportedSet, sender transport.Sender, logger zerolog.Logger) *Table {
	logger = logger.With().Str("component", "namespace-builder").Logger()

	t := &Table{
		namespaces: make(map[string]*Namespace, len(cat)),
		order:      make([]string, 0, len(cat)),
	}

	for _, section := range cat {
		ns, exists := t.namespaces[section.Namespace]
		if !exists {
			ns = newNamespace(section.Namespace)
			t.namespaces[section.Namespace] = ns
			t.order = append(t.order, section.Namespace)
		}

		for _, endpoint := range section.Endpoints {
			id := catalog.MethodID(section.Namespace, endpoint)
			if !supported.Has(id) {
				logger.Debug().Str("method", id).Msg("endpoint not supported, skipping")
				continue
			}
			if ns.Has(endpoint) {
				logger.Debug().Str("method", id).Msg("duplicate endpoint in catalog, replacing")
			}
			ns.set(endpoint, id, sender)
		}
	}

	logger.Debug().
		Int("namespaces", len(t.order)).
		Int("endpoints", t.Len()).
		Msg("namespace table built")

	return t
}

// forwarder returns a Func that sends method with [arg] as params
func forwarder(method string, sender transport.Sender) Func {
	return func(ctx context.Context, arg interface{}) (json.RawMessage, error) {
		return send(ctx, sender, method, []interface{}{arg})
	}
}

func send(ctx context.Context, sender transport.Sender, method string, params []interface{}) (json.RawMessage, error) {
	req, err := jsonrpc.NewRequest(method, params, transport.NextID())
	if err != nil {
		return nil, err
	}

	resp, err := sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	return resp.Unwrap()
}
