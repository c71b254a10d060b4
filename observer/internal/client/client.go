package client

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meshgate/meshgate/pkg/types"
)

// DefaultRetryDelay is the fixed delay between reconnection attempts. There
// is no exponential backoff: the gateway is on an isolated local mesh and a
// steady 2 second retry is the documented client contract.
const DefaultRetryDelay = 2 * time.Second

// State is the connection state of the client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// dialFunc opens a WebSocket connection. Abstracted so tests can count and
// fail dials without a real listener.
type dialFunc func(url string) (*websocket.Conn, error)

func defaultDial(url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

// Client maintains a persistent connection to the gateway's broadcast hub.
//
// The first message on every connection is a snapshot and is treated as
// authoritative full state; every later update replaces the local copy
// wholesale — updates are republishes, never diffs to merge. Frames arriving
// before the snapshot and frames that fail to decode are dropped silently.
//
// On unexpected disconnection the client schedules a retry after a fixed
// delay, indefinitely. Reconnect cancels any pending scheduled retry and
// forces an immediate close and redial. Close stops everything and releases
// the retry timer.
type Client struct {
	url        string
	retryDelay time.Duration
	onState    func(types.BroadcastMessage)
	dial       dialFunc

	mu          sync.Mutex
	state       State
	conn        *websocket.Conn
	retryTimer  *time.Timer
	gen         uint64 // increments per connection attempt; stale read loops are ignored
	closed      bool
	gotSnapshot bool
	machines    []types.Machine
	alerts      []types.Alert
}

// New creates a Client for the given ws:// URL. onState, if non-nil, is
// called with each applied full-state message (snapshot or update), outside
// the client's lock. A zero retryDelay means DefaultRetryDelay.
func New(url string, retryDelay time.Duration, onState func(types.BroadcastMessage)) *Client {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Client{
		url:        url,
		retryDelay: retryDelay,
		onState:    onState,
		dial:       defaultDial,
		state:      StateDisconnected,
	}
}

// Start begins connecting in the background and returns immediately.
func (c *Client) Start() {
	go c.connect()
}

// Reconnect cancels any pending scheduled retry and forces an immediate
// close and redial of the current connection.
func (c *Client) Reconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopRetryLocked()
	c.gen++ // invalidate the dying connection's read loop before it reports the close
	old := c.conn
	c.conn = nil
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	go c.connect()
}

// Close shuts the client down: the connection is closed and any pending
// retry timer is released. The client cannot be restarted after Close.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateDisconnected
	c.stopRetryLocked()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Machines returns a copy of the last applied machine set.
func (c *Client) Machines() []types.Machine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Machine, len(c.machines))
	copy(out, c.machines)
	return out
}

// Alerts returns a copy of the last applied alert set, newest first.
func (c *Client) Alerts() []types.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// --- internal ---------------------------------------------------------------

// connect performs one connection attempt. On failure it schedules a retry;
// on success it hands the connection to a read loop tagged with a new
// generation so a stale loop can never disturb a newer connection.
func (c *Client) connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.state = StateConnecting
	url := c.url
	c.mu.Unlock()

	conn, err := c.dial(url)

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.state = StateDisconnected
		c.scheduleRetryLocked()
		c.mu.Unlock()
		slog.Warn("observer: dial failed, will retry",
			"url", url, "err", err, "retry_in", c.retryDelay)
		return
	}
	if c.conn != nil {
		// A concurrent attempt won the race; its read loop is superseded.
		c.conn.Close()
	}
	c.conn = conn
	c.state = StateConnected
	c.gotSnapshot = false
	c.mu.Unlock()

	slog.Info("observer: connected", "url", url)
	go c.readLoop(conn, gen)
}

// readLoop consumes frames until the connection fails, then triggers the
// retry path for its own generation.
func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.dropConn(conn, gen, err)
			return
		}
		c.handleFrame(data)
	}
}

// handleFrame decodes and applies one inbound message. Malformed frames and
// updates arriving before the baseline snapshot are dropped without tearing
// down the connection.
func (c *Client) handleFrame(data []byte) {
	var msg types.BroadcastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("observer: dropped malformed frame", "err", err)
		return
	}

	c.mu.Lock()
	switch msg.Type {
	case types.MessageSnapshot:
		c.gotSnapshot = true
	case types.MessageUpdate:
		if !c.gotSnapshot {
			c.mu.Unlock()
			slog.Debug("observer: dropped update before snapshot")
			return
		}
	default:
		c.mu.Unlock()
		slog.Debug("observer: dropped frame of unknown type", "type", msg.Type)
		return
	}
	// Full-state replacement: discard the previous local copy wholesale.
	c.machines = msg.Machines
	c.alerts = msg.Alerts
	cb := c.onState
	c.mu.Unlock()

	if cb != nil {
		cb(msg)
	}
}

// dropConn handles a read failure for the given generation. Stale
// generations (already superseded by Reconnect or Close) are ignored.
func (c *Client) dropConn(conn *websocket.Conn, gen uint64, err error) {
	conn.Close()

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	c.scheduleRetryLocked()
	c.mu.Unlock()

	slog.Warn("observer: connection lost, will retry",
		"err", err, "retry_in", c.retryDelay)
}

func (c *Client) scheduleRetryLocked() {
	c.stopRetryLocked()
	c.retryTimer = time.AfterFunc(c.retryDelay, c.connect)
}

func (c *Client) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}
