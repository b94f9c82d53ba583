package cache

import (
	"context"

	"github.com/rs/zerolog"

	"rpcns/internal/jsonrpc"
	"rpcns/internal/transport"
)

// Sender serves cacheable requests from a Cache and forwards the rest
type Sender struct {
	inner   transport.Sender
	cache   Cache
	network string
	logger  zerolog.Logger
}

// NewSender wraps inner with response caching for network
func NewSender(inner transport.Sender, c Cache, network string, logger zerolog.Logger) *Sender {
	return &Sender{
		inner:   inner,
		cache:   c,
		network: network,
		logger:  logger.With().Str("component", "cache").Str("network", network).Logger(),
	}
}

// Send returns a cached response when available, otherwise forwards and stores successes
func (s *Sender) Send(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	if !IsCacheable(req.Method, req.Params) {
		return s.inner.Send(ctx, req)
	}

	cacheKey := GenerateCacheKey(s.network, req.Method, req.Params)
	if cachedData, found := s.cache.Get(cacheKey); found {
		resp, err := jsonrpc.ParseResponse(cachedData)
		if err == nil {
			resp.ID = req.ID
			s.logger.Debug().
				Str("method", req.Method).
				Str("cacheKey", cacheKey).
				Msg("cache hit")
			return resp, nil
		}
	}

	resp, err := s.inner.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.HasError() && !resp.ResultIsNull() {
		if data, err := resp.Bytes(); err == nil {
			s.cache.Set(cacheKey, data)
		}
	}

	return resp, nil
}

// Close closes the inner sender and the cache
func (s *Sender) Close() error {
	s.cache.Close()
	if c, ok := s.inner.(transport.Closer); ok {
		return c.Close()
	}
	return nil
}
