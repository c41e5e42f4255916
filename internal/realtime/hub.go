package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// ActionHandler receives inbound client actions. Implemented by the
// gateway, which dispatches them to the registry, coordinator and relay.
type ActionHandler interface {
	HandleJoin(clientID, name, role string)
	HandleAnswer(clientID, option string)
	HandleChat(clientID, message string)
	HandleDisconnect(clientID string)
}

// EventMirror publishes broadcast events to an external channel (Redis)
// so dashboards or log tailers can observe the session. Optional.
type EventMirror interface {
	PublishEvent(event string, payload []byte) error
}

// Hub maintains the set of connected clients for the single classroom and
// broadcasts event messages to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	handler ActionHandler
	mirror  EventMirror
	logger  *zap.Logger
}

// NewHub creates a WebSocket hub. mirror may be nil.
func NewHub(logger *zap.Logger, mirror EventMirror) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		mirror:  mirror,
		logger:  logger,
	}
}

// SetActionHandler sets the dispatcher for inbound client actions. Must be
// called before the first connection is served.
func (h *Hub) SetActionHandler(handler ActionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// Register adds a client to the classroom.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected",
		zap.String("client_id", c.ID),
		zap.Int("connections", count),
	)
}

// Unregister removes a client from the classroom.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected",
		zap.String("client_id", c.ID),
		zap.Int("connections", count),
	)
}

// Broadcast sends an event to every connected client and mirrors it to the
// external event channel when one is configured.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
	h.mu.RUnlock()

	if h.mirror != nil {
		_ = h.mirror.PublishEvent(event, data)
	}
}

// SendToClient sends an event to a single client.
func (h *Hub) SendToClient(clientID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	c, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// CloseClient forcibly closes a client's connection (used for kicks).
func (h *Hub) CloseClient(clientID string) {
	h.mu.RLock()
	c, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = c.conn.Close()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) actionHandler() ActionHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}
