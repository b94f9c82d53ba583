package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rpcns/internal/jsonrpc"
)

// HTTPSender posts JSON-RPC requests to a node's HTTP endpoint
type HTTPSender struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPSender creates a new HTTPSender
func NewHTTPSender(url string, timeout time.Duration, logger zerolog.Logger) *HTTPSender {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPSender{
		url: url,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger.With().Str("component", "http-sender").Logger(),
	}
}

// Send posts the request and parses the response
func (s *HTTPSender) Send(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	reqBytes, err := req.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	rpcResp, err := jsonrpc.ParseResponse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	s.logger.Debug().
		Str("method", req.Method).
		Dur("duration", time.Since(start)).
		Bool("rpcError", rpcResp.HasError()).
		Msg("request completed")

	return rpcResp, nil
}

// Close releases idle connections
func (s *HTTPSender) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
