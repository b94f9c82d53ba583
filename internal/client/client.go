// Package client ties a network description to a sender and exposes the
// built namespace table.
package client

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"rpcns/internal/catalog"
	"rpcns/internal/namespace"
	"rpcns/internal/transport"
)

// Client is a network-bound RPC namespace table
type Client struct {
	network catalog.Network
	sender  transport.Sender
	api     *namespace.Table
}

// New builds the table for network from its static supported list
func New(network catalog.Network, sender transport.Sender, logger zerolog.Logger) *Client {
	return newClient(network, network.SupportedSet(), sender, logger)
}

// NewWithDiscovery builds the table from the methods the node reports via rpc_methods
func NewWithDiscovery(ctx context.Context, network catalog.Network, sender transport.Sender, logger zerolog.Logger) (*Client, error) {
	supported, err := catalog.Discover(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("network '%s': %w", network.Name, err)
	}
	network.Supported = supported.List()
	return newClient(network, supported, sender, logger), nil
}

func newClient(network catalog.Network, supported catalog.SupportedSet, sender transport.Sender, logger zerolog.Logger) *Client {
	api := namespace.BuildWithLogger(network.Catalog, supported, sender,
		logger.With().Str("network", network.Name).Logger())

	return &Client{
		network: network,
		sender:  sender,
		api:     api,
	}
}

// API returns the built namespace table
func (c *Client) API() *namespace.Table {
	return c.api
}

// Network returns the network the table was built for
func (c *Client) Network() catalog.Network {
	return c.network
}

// Chain returns the typed chain accessors
func (c *Client) Chain() namespace.ChainAPI {
	var chain namespace.ChainAPI
	_ = namespace.BindTable(c.api, "chain", &chain)
	return chain
}

// System returns the typed system accessors
func (c *Client) System() namespace.SystemAPI {
	var system namespace.SystemAPI
	_ = namespace.BindTable(c.api, "system", &system)
	return system
}

// Close closes the sender if it holds resources
func (c *Client) Close() error {
	if closer, ok := c.sender.(transport.Closer); ok {
		return closer.Close()
	}
	return nil
}
