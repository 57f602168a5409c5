package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/protocol"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Every message is one frame.
	maxMessageSize = protocol.WireSize

	// Frames buffered per connection before the reader blocks
	wsQueue = 64
)

// wsBus is a Bus over one WebSocket connection. Each binary message carries
// one frame in SocketCAN layout.
type wsBus struct {
	conn    *websocket.Conn
	remote  string
	writeMu sync.Mutex
	frames  chan protocol.Frame

	closeOnce sync.Once
	closed    chan struct{}

	done    chan struct{} // closed when the read loop exits
	readErr error
}

// DialWebSocket connects to a gateway hub at rawURL (ws:// or wss://).
func DialWebSocket(ctx context.Context, rawURL string) (Bus, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", rawURL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	logging.LogConnection(rawURL, "websocket_connected")
	return newWSBus(conn, rawURL), nil
}

func newWSBus(conn *websocket.Conn, remote string) *wsBus {
	b := &wsBus{
		conn:   conn,
		remote: remote,
		frames: make(chan protocol.Frame, wsQueue),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	go b.readLoop()
	return b
}

func (b *wsBus) readLoop() {
	defer close(b.done)
	for {
		mt, data, err := b.conn.ReadMessage()
		if err != nil {
			select {
			case <-b.closed:
				b.readErr = ErrClosed
			default:
				b.readErr = fmt.Errorf("websocket read: %w", err)
			}
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		var f protocol.Frame
		if err := f.UnmarshalBinary(data); err != nil {
			logging.Debug("Dropping undecodable websocket frame",
				zap.String("remote_addr", b.remote),
				zap.Error(err),
			)
			continue
		}
		select {
		case b.frames <- f:
		case <-b.closed:
			b.readErr = ErrClosed
			return
		}
	}
}

func (b *wsBus) Send(ctx context.Context, frame protocol.Frame) error {
	buf, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	select {
	case <-b.closed:
		return ErrClosed
	default:
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := b.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := b.conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (b *wsBus) Receive(ctx context.Context) (protocol.Frame, error) {
	select {
	case f := <-b.frames:
		return f, nil
	case <-b.done:
		// Drain anything the reader queued before it stopped.
		select {
		case f := <-b.frames:
			return f, nil
		default:
		}
		return protocol.Frame{}, b.readErr
	case <-b.closed:
		return protocol.Frame{}, ErrClosed
	case <-ctx.Done():
		return protocol.Frame{}, ctx.Err()
	}
}

func (b *wsBus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = b.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = b.conn.Close()
		logging.LogConnection(b.remote, "websocket_closed")
	})
	return err
}

// Hub is an http.Handler that joins WebSocket clients into one virtual CAN
// segment: every binary frame received from a member is relayed to all other
// members. A Bus can be bridged in as a member with Bridge.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	members map[*hubMember]struct{}
	closed  bool
}

type hubMember struct {
	name string
	send chan []byte
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithHubLogger sets the hub logger
func WithHubLogger(l *zap.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// WithCheckOrigin overrides the upgrader origin check. By default every
// origin is accepted.
func WithCheckOrigin(fn func(r *http.Request) bool) HubOption {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// NewHub creates an empty hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  256,
			WriteBufferSize: 256,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		members: make(map[*hubMember]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.GetLogger()
	}
	h.logger = h.logger.Named("hub")
	return h
}

// ErrHubClosed is returned when joining a closed hub
var ErrHubClosed = errors.New("transport: hub closed")

func (h *Hub) join(name string) (*hubMember, error) {
	m := &hubMember{name: name, send: make(chan []byte, wsQueue)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	h.members[m] = struct{}{}
	return m, nil
}

func (h *Hub) leave(m *hubMember) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.members[m]; ok {
		delete(h.members, m)
		close(m.send)
	}
}

// relay queues data for every member except from. Members whose queue is
// full miss the frame.
func (h *Hub) relay(from *hubMember, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for m := range h.members {
		if m == from {
			continue
		}
		select {
		case m.send <- data:
		default:
			h.logger.Warn("Dropping frame for slow member", zap.String("member", m.name))
		}
	}
}

// Members returns the number of connected members
func (h *Hub) Members() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.members)
}

// Close disconnects every member. Further joins fail.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for m := range h.members {
		delete(h.members, m)
		close(m.send)
	}
	return nil
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.logger.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	m, err := h.join(r.RemoteAddr)
	if err != nil {
		_ = conn.Close()
		return
	}
	h.logger.Info("Client joined", zap.String("remote_addr", r.RemoteAddr))

	go h.writeLoop(conn, m)
	h.readLoop(conn, m)

	h.leave(m)
	_ = conn.Close()
	h.logger.Info("Client left", zap.String("remote_addr", r.RemoteAddr))
}

func (h *Hub) readLoop(conn *websocket.Conn, m *hubMember) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Info("Client read error", zap.String("member", m.name), zap.Error(err))
			}
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		var f protocol.Frame
		if err := f.UnmarshalBinary(data); err != nil {
			h.logger.Debug("Dropping undecodable frame", zap.String("member", m.name), zap.Error(err))
			continue
		}
		logging.LogFrame("relay", f)
		h.relay(m, data)
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, m *hubMember) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data, ok := <-m.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Bridge joins bus to the hub until ctx is done or the bus fails: frames
// received from bus are relayed to all clients and client frames are sent on
// bus.
func (h *Hub) Bridge(ctx context.Context, name string, bus Bus) error {
	m, err := h.join(name)
	if err != nil {
		return err
	}
	defer h.leave(m)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		for {
			select {
			case data, ok := <-m.send:
				if !ok {
					errc <- ErrHubClosed
					cancel()
					return
				}
				var f protocol.Frame
				if err := f.UnmarshalBinary(data); err != nil {
					continue
				}
				if err := bus.Send(ctx, f); err != nil {
					errc <- fmt.Errorf("bridge send: %w", err)
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		f, err := bus.Receive(ctx)
		if err != nil {
			select {
			case werr := <-errc:
				return werr
			default:
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bridge receive: %w", err)
		}
		data, err := f.MarshalBinary()
		if err != nil {
			continue
		}
		h.relay(m, data)
	}
}
