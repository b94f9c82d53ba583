package namespace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rpcns/internal/transport"
)

// ErrEndpointNotSupported is returned when calling an endpoint absent from the table
var ErrEndpointNotSupported = errors.New("endpoint not supported")

// Table maps namespaces to their callable endpoints.
// It is immutable after Build and safe for concurrent use.
type Table struct {
	namespaces map[string]*Namespace
	order      []string
}

// Namespaces returns the namespace names in catalog order
func (t *Table) Namespaces() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// Namespace returns a namespace by name
func (t *Table) Namespace(name string) (*Namespace, bool) {
	ns, ok := t.namespaces[name]
	return ns, ok
}

// Lookup returns the Func for namespace.endpoint
func (t *Table) Lookup(namespace, endpoint string) (Func, bool) {
	ns, ok := t.namespaces[namespace]
	if !ok {
		return nil, false
	}
	return ns.Get(endpoint)
}

// Call invokes namespace.endpoint with arg
func (t *Table) Call(ctx context.Context, namespace, endpoint string, arg interface{}) (json.RawMessage, error) {
	fn, ok := t.Lookup(namespace, endpoint)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", namespace, endpoint, ErrEndpointNotSupported)
	}
	return fn(ctx, arg)
}

// Len returns the total number of callable endpoints
func (t *Table) Len() int {
	n := 0
	for _, ns := range t.namespaces {
		n += ns.Len()
	}
	return n
}

// Methods returns namespace -> endpoint names, in catalog order
func (t *Table) Methods() map[string][]string {
	out := make(map[string][]string, len(t.order))
	for _, name := range t.order {
		out[name] = t.namespaces[name].Names()
	}
	return out
}

type entry struct {
	method string
	fn     Func
	sender transport.Sender
}

// Namespace is the set of callable endpoints of one namespace
type Namespace struct {
	name    string
	entries map[string]entry
	order   []string
}

func newNamespace(name string) *Namespace {
	return &Namespace{
		name:    name,
		entries: make(map[string]entry),
	}
}

// set adds or replaces an endpoint; only used while building
func (n *Namespace) set(endpoint, method string, sender transport.Sender) {
	if _, exists := n.entries[endpoint]; !exists {
		n.order = append(n.order, endpoint)
	}
	n.entries[endpoint] = entry{
		method: method,
		fn:     forwarder(method, sender),
		sender: sender,
	}
}

// Name returns the namespace name
func (n *Namespace) Name() string {
	return n.name
}

// Names returns the endpoint names in catalog order
func (n *Namespace) Names() []string {
	names := make([]string, len(n.order))
	copy(names, n.order)
	return names
}

// Has reports whether the endpoint is callable
func (n *Namespace) Has(endpoint string) bool {
	_, ok := n.entries[endpoint]
	return ok
}

// Get returns the Func for an endpoint
func (n *Namespace) Get(endpoint string) (Func, bool) {
	e, ok := n.entries[endpoint]
	if !ok {
		return nil, false
	}
	return e.fn, true
}

// Method returns the wire method name for an endpoint
func (n *Namespace) Method(endpoint string) (string, bool) {
	e, ok := n.entries[endpoint]
	return e.method, ok
}

// Len returns the number of callable endpoints
func (n *Namespace) Len() int {
	return len(n.entries)
}

// Call invokes endpoint with arg
func (n *Namespace) Call(ctx context.Context, endpoint string, arg interface{}) (json.RawMessage, error) {
	fn, ok := n.Get(endpoint)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", n.name, endpoint, ErrEndpointNotSupported)
	}
	return fn(ctx, arg)
}

// Call0 invokes endpoint with an empty params list
func (n *Namespace) Call0(ctx context.Context, endpoint string) (json.RawMessage, error) {
	e, ok := n.entries[endpoint]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", n.name, endpoint, ErrEndpointNotSupported)
	}
	return send(ctx, e.sender, e.method, nil)
}
