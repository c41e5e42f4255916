package participants

import (
	"github.com/gin-gonic/gin"

	"github.com/classpulse/backend/pkg/response"
)

// Notifier delivers events to connected clients. Implemented by the
// realtime hub.
type Notifier interface {
	Broadcast(event string, payload interface{})
	SendToClient(clientID, event string, payload interface{})
	CloseClient(clientID string)
}

// KickRequest is the body for POST /api/kick-user.
type KickRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Handler handles participant HTTP endpoints.
type Handler struct {
	registry *Registry
	notifier Notifier
}

// NewHandler creates a participants handler.
func NewHandler(registry *Registry, notifier Notifier) *Handler {
	return &Handler{registry: registry, notifier: notifier}
}

// List handles GET /api/connected-users.
func (h *Handler) List(c *gin.Context) {
	users := h.registry.List()
	response.OK(c, gin.H{"users": users, "count": len(users)})
}

// Kick handles POST /api/kick-user. The kicked client is notified and its
// connection force-closed.
func (h *Handler) Kick(c *gin.Context) {
	var req KickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "userId is required")
		return
	}

	p, ok := h.registry.Kick(req.UserID)
	if !ok {
		response.NotFound(c, "user not found")
		return
	}

	h.notifier.SendToClient(p.ClientID, "user-kicked", nil)
	h.notifier.CloseClient(p.ClientID)
	h.notifier.Broadcast("user-count-updated", h.registry.CountPayload())
	response.OK(c, gin.H{"kicked": p.ID})
}
