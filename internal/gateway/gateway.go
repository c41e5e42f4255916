// Package gateway relays inbound WebSocket actions to the session
// registry, the poll coordinator and the chat relay, and pushes the
// resulting state back out through the hub.
package gateway

import (
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/chat"
	"github.com/classpulse/backend/internal/participants"
	"github.com/classpulse/backend/internal/polls"
)

// Broadcaster delivers events to connected clients. Implemented by the
// realtime hub.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
	SendToClient(clientID, event string, payload interface{})
}

// Gateway implements realtime.ActionHandler.
type Gateway struct {
	registry    *participants.Registry
	coordinator *polls.Coordinator
	relay       *chat.Relay
	hub         Broadcaster
	logger      *zap.Logger
}

// New creates the gateway.
func New(registry *participants.Registry, coordinator *polls.Coordinator, relay *chat.Relay, hub Broadcaster, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		registry:    registry,
		coordinator: coordinator,
		relay:       relay,
		hub:         hub,
		logger:      logger,
	}
}

// HandleJoin registers the participant, sends them the current poll state
// (after the join-time expiry check) and broadcasts the new user count.
func (g *Gateway) HandleJoin(clientID, name, role string) {
	p := g.registry.Join(clientID, name, role)
	poll, results := g.coordinator.PollForJoin()

	g.hub.SendToClient(clientID, "user-joined", map[string]interface{}{
		"userId":      p.ID,
		"currentPoll": poll,
		"results":     results,
	})
	g.hub.Broadcast("user-count-updated", g.registry.CountPayload())
}

// HandleAnswer records an answer for the current poll on behalf of the
// participant bound to the connection. Rejections are logged, not
// surfaced: the WebSocket answer path is fire-and-forget.
func (g *Gateway) HandleAnswer(clientID, option string) {
	p := g.registry.ByClient(clientID)
	if p == nil {
		g.logger.Warn("answer from unknown client", zap.String("client_id", clientID))
		return
	}
	poll, _ := g.coordinator.CurrentPoll()
	if poll == nil {
		g.logger.Warn("answer with no current poll", zap.String("user_id", p.ID))
		return
	}
	if _, err := g.coordinator.RecordAnswer(poll.ID, p.ID, option); err != nil {
		g.logger.Warn("answer rejected",
			zap.String("user_id", p.ID),
			zap.String("option", option),
			zap.Error(err),
		)
	}
}

// HandleChat appends and broadcasts a chat message from the participant
// bound to the connection.
func (g *Gateway) HandleChat(clientID, message string) {
	p := g.registry.ByClient(clientID)
	if p == nil {
		g.logger.Warn("chat from unknown client", zap.String("client_id", clientID))
		return
	}
	g.relay.Append(p.ID, p.Name, p.Role, message)
}

// HandleDisconnect removes the participant and broadcasts the new count.
func (g *Gateway) HandleDisconnect(clientID string) {
	if p := g.registry.Leave(clientID); p == nil {
		return
	}
	g.hub.Broadcast("user-count-updated", g.registry.CountPayload())
}
