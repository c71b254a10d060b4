package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meshgate/meshgate/gateway/internal/ledger"
	"github.com/meshgate/meshgate/gateway/internal/metrics"
	"github.com/meshgate/meshgate/gateway/internal/state"
	"github.com/meshgate/meshgate/pkg/types"
)

const (
	// writeTimeout is the deadline for a single write to an observer.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-observer outgoing message buffer depth. An
	// observer that falls this far behind is disconnected rather than
	// allowed to apply backpressure on ingestion.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — the gateway serves an isolated local mesh with no
	// authentication in scope.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub manages observer connections and pushes full-state messages to all of
// them: a snapshot immediately on connect, then an update after every state
// mutation. A failure on one observer never blocks publication to the rest.
type Hub struct {
	table    *state.Table
	ledger   *ledger.Ledger
	counters *metrics.Counters

	mu      sync.Mutex
	clients map[*client]struct{}
}

// client represents one connected observer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads full state from table and led.
func New(table *state.Table, led *ledger.Ledger, counters *metrics.Counters) *Hub {
	return &Hub{
		table:    table,
		ledger:   led,
		counters: counters,
		clients:  make(map[*client]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the
// observer. The snapshot is enqueued in the same critical section that
// registers the connection, so no update can be delivered before the
// snapshot that establishes baseline state. Blocks until the connection
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}

	h.mu.Lock()
	snap, err := h.marshal(types.MessageSnapshot)
	if err == nil {
		h.clients[c] = struct{}{}
		c.send <- snap // fresh buffered channel, never blocks
	}
	h.mu.Unlock()

	if err != nil {
		slog.Error("ws: snapshot marshal failed", "err", err)
		conn.Close()
		return
	}

	h.counters.ObserversConnected.Add(1)
	defer func() {
		h.unregister(c)
		h.counters.ObserversConnected.Add(-1)
	}()

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Broadcast sends a full-state update to every registered observer. An
// observer whose buffer is full is unregistered and closed; the rest are
// unaffected. Never blocks on observer I/O.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := h.marshal(types.MessageUpdate)
	if err != nil {
		slog.Error("ws: update marshal failed", "err", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Observer's outgoing buffer is full — disconnect it.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Count returns the number of currently connected observers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

// marshal builds a full-state message of the given type. Callers hold h.mu,
// which orders message construction against observer registration.
func (h *Hub) marshal(msgType string) ([]byte, error) {
	machines := h.table.All()
	alerts := h.ledger.All()
	if machines == nil {
		machines = []types.Machine{}
	}
	if alerts == nil {
		alerts = []types.Alert{}
	}
	return json.Marshal(types.BroadcastMessage{
		Type:     msgType,
		Machines: machines,
		Alerts:   alerts,
	})
}

// unregister removes the client, idempotently.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per observer.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or observer removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages
// (pong, close) and detect disconnects. Observers are push-only; inbound
// text frames are discarded. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
