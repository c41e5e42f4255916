package chat

import (
	"github.com/gin-gonic/gin"

	"github.com/classpulse/backend/pkg/response"
)

// SendRequest is the body for POST /api/chat/messages.
type SendRequest struct {
	Message  string `json:"message" binding:"required"`
	UserID   string `json:"userId" binding:"required"`
	UserName string `json:"userName" binding:"required"`
	Role     string `json:"role"`
}

// Handler handles chat HTTP endpoints.
type Handler struct {
	relay *Relay
}

// NewHandler creates a chat handler.
func NewHandler(relay *Relay) *Handler {
	return &Handler{relay: relay}
}

// List handles GET /api/chat/messages.
func (h *Handler) List(c *gin.Context) {
	response.OK(c, gin.H{"messages": h.relay.Messages()})
}

// Send handles POST /api/chat/messages.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "message, userId and userName are required")
		return
	}
	msg := h.relay.Append(req.UserID, req.UserName, req.Role, req.Message)
	response.OK(c, gin.H{"message": msg})
}
