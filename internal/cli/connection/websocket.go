package connection

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/remotectl/internal/telemetry/logger"
)

// WebSocketConfig configures the WebSocket transport.
type WebSocketConfig struct {
	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration
	// CloseGracePeriod is how long to wait for the peer to answer a close
	// frame before dropping the connection.
	CloseGracePeriod time.Duration
	// SendQueueSize is the number of payloads buffered ahead of the writer.
	SendQueueSize int
	// TLSConfig is used for wss:// addresses. Nil means system defaults.
	TLSConfig *tls.Config
	// Header is sent with the opening handshake.
	Header http.Header
}

// DefaultWebSocketConfig returns the default transport settings.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		CloseGracePeriod: 2 * time.Second,
		SendQueueSize:    64,
	}
}

// WebSocketTransport opens WebSocket connections with gorilla/websocket.
type WebSocketTransport struct {
	cfg    WebSocketConfig
	dialer *websocket.Dialer
	logger logger.Logger
}

// NewWebSocketTransport creates a WebSocket transport.
func NewWebSocketTransport(cfg WebSocketConfig, l logger.Logger) *WebSocketTransport {
	def := DefaultWebSocketConfig()
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.CloseGracePeriod <= 0 {
		cfg.CloseGracePeriod = def.CloseGracePeriod
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = def.SendQueueSize
	}
	if l == nil {
		l = logger.Default()
	}

	return &WebSocketTransport{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
			TLSClientConfig:  cfg.TLSConfig,
		},
		logger: l.With("component", "websocket"),
	}
}

// Open normalizes address and starts dialing in the background.
func (t *WebSocketTransport) Open(address string, events Events) (Handle, error) {
	target, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &wsHandle{
		url:      target,
		cfg:      t.cfg,
		events:   events,
		logger:   t.logger.With("address", target),
		cancel:   cancel,
		outbound: make(chan string, t.cfg.SendQueueSize),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}

	go h.run(ctx, t.dialer)
	return h, nil
}

// wsHandle is one WebSocket connection. run owns the connection; a
// writer goroutine is the only one writing data frames.
type wsHandle struct {
	url    string
	cfg    WebSocketConfig
	events Events
	logger logger.Logger

	cancel   context.CancelFunc
	outbound chan string
	closing  chan struct{}
	done     chan struct{}

	closeOnce   sync.Once
	openedOnce  sync.Once
	erroredOnce sync.Once
	closedOnce  sync.Once

	mu       sync.Mutex
	writeErr error
}

// Send queues payload for the writer.
func (h *wsHandle) Send(payload string) error {
	select {
	case <-h.closing:
		return ErrHandleClosed
	default:
	}

	select {
	case h.outbound <- payload:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close cancels a pending dial or starts the closing handshake.
func (h *wsHandle) Close() error {
	h.closeOnce.Do(func() {
		close(h.closing)
		h.cancel()
	})
	return nil
}

func (h *wsHandle) isClosing() bool {
	select {
	case <-h.closing:
		return true
	default:
		return false
	}
}

func (h *wsHandle) run(ctx context.Context, dialer *websocket.Dialer) {
	defer close(h.done)
	defer h.notifyClosed()
	defer h.cancel()

	conn, resp, err := dialer.DialContext(ctx, h.url, h.cfg.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if h.isClosing() {
			h.logger.Debug("dial cancelled")
			return
		}
		h.notifyErrored(fmt.Errorf("dial: %w", err))
		return
	}

	if h.isClosing() {
		conn.Close()
		return
	}

	h.notifyOpened()

	readDone := make(chan struct{})
	writerDone := make(chan struct{})
	go h.writeLoop(conn, readDone, writerDone)

	err = h.readLoop(conn)
	close(readDone)
	<-writerDone
	conn.Close()

	switch {
	case h.failure() != nil:
		h.notifyErrored(h.failure())
	case h.isClosing():
		h.logger.Debug("connection closed")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		h.logger.Info("connection closed by peer", "reason", err.Error())
	default:
		h.notifyErrored(fmt.Errorf("read: %w", err))
	}
}

// readLoop drains inbound frames until the connection fails or closes.
func (h *wsHandle) readLoop(conn *websocket.Conn) error {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		h.logger.Debug("inbound message", "type", kind, "size", len(data))
	}
}

func (h *wsHandle) writeLoop(conn *websocket.Conn, readDone <-chan struct{}, writerDone chan<- struct{}) {
	defer close(writerDone)

	for {
		select {
		case payload := <-h.outbound:
			if err := h.write(conn, payload); err != nil {
				return
			}
		case <-h.closing:
			h.drain(conn)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
				h.logger.Debug("write close frame", "error", err)
			}
			select {
			case <-readDone:
			case <-time.After(h.cfg.CloseGracePeriod):
				h.logger.Debug("peer did not answer close frame")
				conn.Close()
			}
			return
		case <-readDone:
			return
		}
	}
}

// drain flushes payloads queued before Close.
func (h *wsHandle) drain(conn *websocket.Conn) {
	for {
		select {
		case payload := <-h.outbound:
			if err := h.write(conn, payload); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (h *wsHandle) write(conn *websocket.Conn, payload string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
		h.setFailure(err)
		conn.Close()
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		if !h.isClosing() {
			h.setFailure(fmt.Errorf("write: %w", err))
		}
		conn.Close()
		return err
	}
	return nil
}

func (h *wsHandle) setFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writeErr == nil {
		h.writeErr = err
	}
}

func (h *wsHandle) failure() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writeErr
}

func (h *wsHandle) notifyOpened() {
	h.openedOnce.Do(h.events.Opened)
}

func (h *wsHandle) notifyErrored(err error) {
	h.erroredOnce.Do(func() {
		h.logger.Warn("transport error", "error", err)
		h.events.Errored(err)
	})
}

func (h *wsHandle) notifyClosed() {
	h.closedOnce.Do(h.events.Closed)
}
