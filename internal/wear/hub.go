// Package wear is the companion messaging transport: paired devices attach
// over WebSocket and exchange path-addressed messages with the relay.
package wear

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wearrelay/pkg/types"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 20 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 32
)

// HandlerFunc receives an inbound companion message.
type HandlerFunc func(path string, data []byte)

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans outbound messages to every attached companion and routes inbound
// messages to handlers by path prefix.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[*client]struct{}
	handlers map[string]HandlerFunc
	closed   bool
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log: log.With().Str("component", "wear").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers fn for inbound paths starting with prefix. The longest
// matching prefix wins.
func (h *Hub) Handle(prefix string, fn HandlerFunc) {
	h.mu.Lock()
	h.handlers[prefix] = fn
	h.mu.Unlock()
}

// SendAsync enqueues a message for every attached companion without
// blocking. It reports whether at least one companion accepted it; a full
// per-companion buffer drops the message for that companion.
func (h *Hub) SendAsync(path string, payload []byte) bool {
	b, err := json.Marshal(types.WireMessage{Path: path, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("path", path).Msg("encode message")
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false
	}
	sent := false
	for c := range h.clients {
		select {
		case c.send <- b:
			sent = true
		default:
			h.log.Warn().Str("path", path).Str("remote", c.conn.RemoteAddr().String()).Msg("companion send buffer full")
		}
	}
	return sent
}

// Len returns the number of attached companions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the companion until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("companion attached")

	go h.writePump(c)
	h.readPump(c)
}

// Close detaches every companion.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		h.log.Info().Str("remote", c.conn.RemoteAddr().String()).Msg("companion detached")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg types.WireMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("ws read")
			}
			return
		}
		h.dispatch(msg)
	}
}

func (h *Hub) writePump(c *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.log.Debug().Err(err).Msg("ws write")
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) dispatch(msg types.WireMessage) {
	fn := h.lookup(msg.Path)
	if fn == nil {
		h.log.Debug().Str("path", msg.Path).Msg("no handler for companion message")
		return
	}
	fn(msg.Path, msg.Data)
}

func (h *Hub) lookup(path string) HandlerFunc {
	h.mu.RLock()
	defer h.mu.RUnlock()
	prefixes := make([]string, 0, len(h.handlers))
	for p := range h.handlers {
		if strings.HasPrefix(path, p) {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return nil
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return h.handlers[prefixes[0]]
}
