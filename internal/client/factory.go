package client

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"rpcns/internal/cache"
	"rpcns/internal/catalog"
	"rpcns/internal/config"
	"rpcns/internal/transport"
)

// LoadNetwork resolves the catalog and supported list of a configured network
func LoadNetwork(nc *config.NetworkConfig) (catalog.Network, error) {
	network := catalog.Network{Name: nc.Name}

	if nc.Preset != "" {
		preset, err := catalog.Preset(nc.Preset)
		if err != nil {
			return network, err
		}
		network.Catalog = preset.Catalog
		network.Supported = preset.Supported
	}

	if nc.CatalogPath != "" {
		cat, err := catalog.Load(nc.CatalogPath)
		if err != nil {
			return network, err
		}
		network.Catalog = cat
	}

	if nc.SupportedPath != "" {
		supported, err := catalog.LoadSupported(nc.SupportedPath)
		if err != nil {
			return network, err
		}
		network.Supported = supported.List()
	}

	return network, nil
}

// NewSender creates the transport for a configured network, wrapped in the
// response cache when enabled
func NewSender(ctx context.Context, cfg *config.Config, nc *config.NetworkConfig, logger zerolog.Logger) (transport.Sender, error) {
	var sender transport.Sender

	url := nc.Endpoint()
	switch nc.Transport {
	case config.TransportWS:
		ws := transport.NewWSSender(url, cfg.GetRequestTimeoutDuration(), cfg.GetWSMessageTimeoutDuration(), cfg.GetPingIntervalDuration(), logger)
		if err := ws.Connect(ctx); err != nil {
			return nil, err
		}
		sender = ws
	default:
		sender = transport.NewHTTPSender(url, cfg.GetRequestTimeoutDuration(), logger)
	}

	if !cfg.IsCacheEnabled() {
		return sender, nil
	}

	cache.SetDisabledMethods(cfg.Cache.DisabledMethods)
	mc, err := cache.NewMemoryCache(cfg.Cache.Size, cfg.Cache.GetTTLDuration())
	if err != nil {
		if closer, ok := sender.(transport.Closer); ok {
			closer.Close()
		}
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	logger.Info().
		Int("size", cfg.Cache.Size).
		Dur("ttl", cfg.Cache.GetTTLDuration()).
		Msg("response cache enabled")

	return cache.NewSender(sender, mc, nc.Name, logger), nil
}

// FromConfig builds a Client for the named network
func FromConfig(ctx context.Context, cfg *config.Config, name string, logger zerolog.Logger) (*Client, error) {
	nc, ok := cfg.Network(name)
	if !ok {
		return nil, fmt.Errorf("network '%s' not configured", name)
	}

	network, err := LoadNetwork(nc)
	if err != nil {
		return nil, fmt.Errorf("network '%s': %w", name, err)
	}

	sender, err := NewSender(ctx, cfg, nc, logger)
	if err != nil {
		return nil, fmt.Errorf("network '%s': %w", name, err)
	}

	if !nc.Discover {
		return New(network, sender, logger), nil
	}

	c, err := NewWithDiscovery(ctx, network, sender, logger)
	if err != nil {
		if closer, ok := sender.(transport.Closer); ok {
			closer.Close()
		}
		return nil, err
	}
	return c, nil
}
