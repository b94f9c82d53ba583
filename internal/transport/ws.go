package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rpcns/internal/jsonrpc"
)

// ErrNotConnected is returned when the WebSocket connection is gone
var ErrNotConnected = errors.New("WebSocket not connected")

// ErrConnectionClosed is returned to requests pending when the connection drops
var ErrConnectionClosed = errors.New("connection closed")

// WSSender owns a single WebSocket connection to a node and multiplexes
// request/response pairs on it by request ID.
type WSSender struct {
	url            string
	requestTimeout time.Duration
	messageTimeout time.Duration
	pingInterval   time.Duration
	logger         zerolog.Logger

	conn    *websocket.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	pending   map[int64]chan *jsonrpc.Response
	pendingMu sync.Mutex
	reqID     int64

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWSSender creates a new WebSocket sender. Call Connect before Send.
// requestTimeout bounds a Send whose context has no deadline; zero disables it.
func NewWSSender(url string, requestTimeout, messageTimeout, pingInterval time.Duration, logger zerolog.Logger) *WSSender {
	ctx, cancel := context.WithCancel(context.Background())
	return &WSSender{
		url:            url,
		requestTimeout: requestTimeout,
		messageTimeout: messageTimeout,
		pingInterval:   pingInterval,
		logger:         logger.With().Str("component", "ws-sender").Str("url", url).Logger(),
		pending:        make(map[int64]chan *jsonrpc.Response),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Connect establishes the WebSocket connection and starts the reader goroutine
func (s *WSSender) Connect(ctx context.Context) error {
	s.connMu.Lock()
	if s.conn != nil {
		s.connMu.Unlock()
		return nil
	}
	s.connMu.Unlock()

	s.logger.Debug().Msg("WebSocket connecting")
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect WebSocket: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.readTimeout()))
	})

	s.logger.Info().Msg("WebSocket connected")
	s.wg.Add(1)
	go s.readLoop(conn)
	if s.pingInterval > 0 {
		s.wg.Add(1)
		go s.pingLoop()
	}
	return nil
}

// Connected returns true if the WebSocket connection is established
func (s *WSSender) Connected() bool {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.conn != nil
}

func (s *WSSender) readTimeout() time.Duration {
	if s.messageTimeout == 0 {
		return 60 * time.Second
	}
	return s.messageTimeout
}

// Send writes the request and waits for the response with the same ID
func (s *WSSender) Send(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok && s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	reqID := atomic.AddInt64(&s.reqID, 1)
	respChan := make(chan *jsonrpc.Response, 1)

	s.pendingMu.Lock()
	s.pending[reqID] = respChan
	s.pendingMu.Unlock()

	wsReq := req.Clone()
	wsReq.ID = jsonrpc.NewIDInt(reqID)

	reqBytes, err := wsReq.Bytes()
	if err != nil {
		s.removePending(reqID)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	s.writeMu.Lock()
	writeErr := conn.WriteMessage(websocket.TextMessage, reqBytes)
	s.writeMu.Unlock()
	if writeErr != nil {
		s.removePending(reqID)
		return nil, fmt.Errorf("failed to send request: %w", writeErr)
	}

	select {
	case resp := <-respChan:
		if resp == nil {
			return nil, ErrConnectionClosed
		}
		resp.ID = req.ID
		return resp, nil
	case <-ctx.Done():
		s.removePending(reqID)
		return nil, fmt.Errorf("%s: %w", req.Method, ctx.Err())
	}
}

func (s *WSSender) removePending(reqID int64) {
	s.pendingMu.Lock()
	delete(s.pending, reqID)
	s.pendingMu.Unlock()
}

// failPending wakes every waiter with a nil response
func (s *WSSender) failPending() {
	s.pendingMu.Lock()
	for _, ch := range s.pending {
		select {
		case ch <- nil:
		default:
		}
	}
	s.pending = make(map[int64]chan *jsonrpc.Response)
	s.pendingMu.Unlock()
}

func (s *WSSender) pingLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.connMu.RLock()
			conn := s.conn
			s.connMu.RUnlock()
			if conn == nil {
				return
			}
			s.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			s.writeMu.Unlock()
			if err != nil {
				s.logger.Debug().Err(err).Msg("ping write failed")
				return
			}
		}
	}
}

func (s *WSSender) readLoop(conn *websocket.Conn) {
	defer s.wg.Done()

	for {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout()))
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.ctx.Done():
				s.logger.Debug().Msg("WebSocket reader stopped (shutdown)")
			default:
				s.logger.Warn().Err(err).Msg("WebSocket connection lost")
			}

			s.connMu.Lock()
			if s.conn == conn {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()
			s.failPending()
			return
		}

		s.dispatchMessage(data)
	}
}

func (s *WSSender) dispatchMessage(data []byte) {
	var resp jsonrpc.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.Warn().
			Err(err).
			Int("len", len(data)).
			Msg("ws message parse error")
		return
	}

	reqID, ok := resp.ID.Int64()
	if !ok {
		// Notifications carry no numeric ID and have no waiter here
		return
	}

	s.pendingMu.Lock()
	ch, exists := s.pending[reqID]
	if exists {
		delete(s.pending, reqID)
	}
	s.pendingMu.Unlock()

	if exists {
		select {
		case ch <- &resp:
		default:
		}
	}
}

// Close closes the connection and stops the reader
func (s *WSSender) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		s.connMu.Lock()
		if s.conn != nil {
			s.writeMu.Lock()
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			s.writeMu.Unlock()
			err = s.conn.Close()
			s.conn = nil
		}
		s.connMu.Unlock()

		s.failPending()
		s.wg.Wait()
		s.logger.Info().Msg("WebSocket disconnected")
	})
	return err
}
