package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport dials one session of the underlying carrier. The Conn does not
// know or care whether that carrier is a socket, long-poll, or SSE.
type Transport interface {
	Dial(ctx context.Context) (Session, error)
}

// Session is one live connection. ReadMessage blocks until a frame arrives,
// the session closes, or an error occurs.
type Session interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// WebSocketOption configures the websocket transport.
type WebSocketOption func(*wsTransport)

// WithHandshakeTimeout sets the dial handshake timeout (default 10s).
func WithHandshakeTimeout(d time.Duration) WebSocketOption {
	return func(t *wsTransport) { t.handshakeTimeout = d }
}

// WithPingInterval sets the keepalive ping interval (default 45s).
func WithPingInterval(d time.Duration) WebSocketOption {
	return func(t *wsTransport) { t.pingInterval = d }
}

// WithHeader sets extra headers sent during the handshake, such as
// authorization tokens.
func WithHeader(h http.Header) WebSocketOption {
	return func(t *wsTransport) { t.header = h }
}

// WebSocket returns a Transport that dials the given URL over a gorilla
// websocket with a background keepalive ping loop.
func WebSocket(url string, opts ...WebSocketOption) Transport {
	t := &wsTransport{
		url:              url,
		handshakeTimeout: 10 * time.Second,
		pingInterval:     45 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type wsTransport struct {
	url              string
	handshakeTimeout time.Duration
	pingInterval     time.Duration
	header           http.Header
}

func (t *wsTransport) Dial(ctx context.Context) (Session, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout:  t.handshakeTimeout,
		EnableCompression: true,
	}

	conn, _, err := dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}

	s := &wsSession{
		conn: conn,
		done: make(chan struct{}),
	}
	go s.pingLoop(t.pingInterval)
	return s, nil
}

type wsSession struct {
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func (s *wsSession) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

func (s *wsSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *wsSession) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_ = s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		}
	}
}
