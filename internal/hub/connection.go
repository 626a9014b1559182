package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tabletally/internal/match"
)

// ConnectionConfig holds WebSocket tuning for companion clients.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns defaults suited to a handful of phones on
// the table's network.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Companion clients connect from the QR-advertised address,
			// which is never the server's own origin.
			return true
		},
	}
}

// ConnectionManager upgrades companion clients to WebSocket and bridges
// each connection to a hub subscription.
type ConnectionManager struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   ConnectionConfig

	mu    sync.Mutex
	conns map[*Connection]bool
}

// Connection is one companion client.
type Connection struct {
	ID      string
	sub     *Subscription
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	manager *ConnectionManager

	closeOnce sync.Once
}

// NewConnectionManager creates a manager bound to a hub.
func NewConnectionManager(h *Hub, config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		conns:  make(map[*Connection]bool),
	}
}

// UpgradeConnection upgrades an HTTP request to WebSocket, subscribes it to
// the snapshot stream, and starts its pumps. The subscription's immediate
// snapshot means the client is consistent before any further traffic.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	wsConn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade connection: %w", err)
	}

	c := &Connection{
		ID:      uuid.New().String(),
		sub:     cm.hub.Subscribe(),
		conn:    wsConn,
		send:    make(chan []byte, subscriptionBuffer),
		done:    make(chan struct{}),
		manager: cm,
	}

	cm.mu.Lock()
	cm.conns[c] = true
	cm.mu.Unlock()

	go c.snapshotPump()
	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("companion client connected")
	return nil
}

// ConnectionCount returns the number of live companion connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.conns)
}

func (cm *ConnectionManager) remove(c *Connection) {
	cm.mu.Lock()
	delete(cm.conns, c)
	cm.mu.Unlock()
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.manager.hub.Unsubscribe(c.sub.ID)
		c.manager.remove(c)
		c.conn.Close()
		log.Info().Str("connection_id", c.ID).Msg("companion client disconnected")
	})
}

// snapshotPump forwards the hub's snapshot stream onto the socket's send
// queue as state_snapshot envelopes. The stream ends when the hub drops
// the subscription or the connection closes.
func (c *Connection) snapshotPump() {
	defer c.close()
	for snap := range c.sub.C {
		data, err := newSnapshotEnvelope(snap)
		if err != nil {
			log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal snapshot")
			continue
		}
		select {
		case c.send <- data:
		case <-c.done:
			return
		default:
			log.Warn().Str("connection_id", c.ID).Msg("send buffer full, closing connection")
			return
		}
	}
}

// writePump drains the send queue to the socket and keeps the connection
// alive with pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message")
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads mutation requests from the client and feeds them to the
// hub. Rejections go back to this client only; accepted mutations reach it
// through the broadcast like everyone else.
func (c *Connection) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected close")
			}
			return
		}
		c.handleClientMessage(message)
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.sendError("bad_envelope", "message is not a typed envelope")
		return
	}

	if _, err := c.manager.hub.HandleRequest(env.Type, env.Payload); err != nil {
		c.sendError(rejectionCode(err), err.Error())
		return
	}
}

func (c *Connection) sendError(code, message string) {
	data, err := newErrorEnvelope(code, message)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func rejectionCode(err error) string {
	var se *match.StateError
	if errors.As(err, &se) {
		return "state_error"
	}
	return "validation_error"
}
