package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Message is the wire envelope for one inbound frame. Data is left raw; the
// machine never interprets payloads.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Option configures a Conn.
type Option func(*Conn)

// WithBackoff sets the reconnect backoff base and cap
// (defaults 1s and 30s, doubling between attempts).
func WithBackoff(base, cap time.Duration) Option {
	return func(c *Conn) {
		c.backoffBase = base
		c.backoffCap = cap
	}
}

// WithMaxAttempts bounds consecutive failed attempts before the machine
// enters StateError. Zero means retry forever (the default).
func WithMaxAttempts(n int) Option {
	return func(c *Conn) { c.maxAttempts = n }
}

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// Conn is the connection state machine. One Conn owns one logical
// connection; Connect and Disconnect are serialized so a Disconnect racing
// a Connect always leaves the machine consistent with the last call issued.
type Conn struct {
	transport   Transport
	logger      *slog.Logger
	backoffBase time.Duration
	backoffCap  time.Duration
	maxAttempts int

	mu      sync.Mutex
	st      State
	gen     uint64
	running bool
	cancel  context.CancelFunc
	session Session

	stateCBs handlers[State]
	msgCBs   handlers[Message]
	errCBs   handlers[error]
}

// New creates a machine over the given transport. The initial state is
// StateConnecting; no dialing happens until Connect is called.
func New(transport Transport, opts ...Option) *Conn {
	c := &Conn{
		transport:   transport,
		logger:      slog.Default(),
		backoffBase: time.Second,
		backoffCap:  30 * time.Second,
		st:          StateConnecting,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// OnStateChange registers fn for every state transition. The notification
// for a transition always fires before any message received after that
// transition is delivered. The returned cancel removes the registration.
func (c *Conn) OnStateChange(fn func(State)) (cancel func()) {
	return c.stateCBs.add(fn)
}

// OnMessage registers fn for inbound messages, invoked in arrival order,
// at most once per message. There is no replay on reconnect.
func (c *Conn) OnMessage(fn func(Message)) (cancel func()) {
	return c.msgCBs.add(fn)
}

// OnError registers fn for transport and decode errors. Malformed inbound
// payloads are dropped and reported here, never thrown into OnMessage.
func (c *Conn) OnError(fn func(error)) (cancel func()) {
	return c.errCBs.add(fn)
}

// Connect starts the dial loop. It is idempotent: calling while already
// connecting, connected, or reconnecting is a no-op. From StateError or
// StateDisconnected it re-enters StateConnecting.
func (c *Conn) Connect() {
	c.mu.Lock()
	if c.running {
		switch c.st {
		case StateConnecting, StateConnected, StateReconnecting:
			c.mu.Unlock()
			return
		}
	}

	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.running = true

	changed := c.st != StateConnecting
	c.st = StateConnecting
	c.mu.Unlock()

	if changed {
		c.stateCBs.emit(StateConnecting)
	}

	go c.run(ctx, gen)
}

// Disconnect transitions to StateDisconnected and releases the transport
// session. It is safe to call from any state, including already
// disconnected.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	sess := c.session
	c.session = nil
	c.running = false
	changed := c.st != StateDisconnected
	c.st = StateDisconnected
	c.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
	if changed {
		c.stateCBs.emit(StateDisconnected)
	}
}

// run is the dial/read loop for one generation. It exits as soon as the
// generation goes stale (a newer Connect or a Disconnect superseded it).
func (c *Conn) run(ctx context.Context, gen uint64) {
	backoff := c.backoffBase
	attempts := 0

	for {
		sess, err := c.transport.Dial(ctx)
		if ctx.Err() != nil || !c.current(gen) {
			if sess != nil {
				sess.Close()
			}
			return
		}

		if err == nil {
			c.mu.Lock()
			if gen != c.gen {
				c.mu.Unlock()
				sess.Close()
				return
			}
			c.session = sess
			c.mu.Unlock()

			if !c.transition(gen, StateConnected) {
				sess.Close()
				return
			}
			attempts = 0
			backoff = c.backoffBase

			c.readLoop(ctx, gen, sess)
			sess.Close()

			if ctx.Err() != nil || !c.transition(gen, StateDisconnected) {
				return
			}
		} else {
			c.logger.Warn("stream dial failed", "error", err)
			c.errCBs.emit(fmt.Errorf("dial: %w", err))
		}

		attempts++
		if c.maxAttempts > 0 && attempts >= c.maxAttempts {
			c.transition(gen, StateError)
			c.mu.Lock()
			if gen == c.gen {
				c.running = false
			}
			c.mu.Unlock()
			return
		}

		if !c.transition(gen, StateReconnecting) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < c.backoffCap {
			backoff *= 2
			if backoff > c.backoffCap {
				backoff = c.backoffCap
			}
		}
	}
}

// readLoop delivers inbound messages for one session until it fails or the
// generation goes stale.
func (c *Conn) readLoop(ctx context.Context, gen uint64, sess Session) {
	for {
		data, err := sess.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && c.current(gen) {
				c.errCBs.emit(fmt.Errorf("read: %w", err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.errCBs.emit(fmt.Errorf("malformed message: %w", err))
			continue
		}
		if msg.Type == "" {
			c.errCBs.emit(fmt.Errorf("malformed message: missing type"))
			continue
		}

		if !c.current(gen) {
			return
		}
		c.msgCBs.emit(msg)
	}
}

// transition moves to st and notifies, unless the generation is stale or
// the state is unchanged. It reports whether the generation is still live.
func (c *Conn) transition(gen uint64, st State) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	if c.st == st {
		c.mu.Unlock()
		return true
	}
	c.st = st
	c.mu.Unlock()

	c.stateCBs.emit(st)
	return true
}

func (c *Conn) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}
