package chat

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/common/clock"
	"github.com/classpulse/backend/internal/models"
)

// DefaultMaxMessages is the retention window when none is configured.
const DefaultMaxMessages = 100

// EventSink receives relay events for fan-out to connected clients.
type EventSink interface {
	Broadcast(event string, payload interface{})
}

// Relay appends and broadcasts chat messages with a bounded in-memory
// retention window. Independent of poll logic.
type Relay struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	max      int
	sink     EventSink
	clock    clock.Clock
	logger   *zap.Logger
}

// NewRelay creates a chat relay retaining at most max messages.
func NewRelay(max int, sink EventSink, clk clock.Clock, logger *zap.Logger) *Relay {
	if max <= 0 {
		max = DefaultMaxMessages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{max: max, sink: sink, clock: clk, logger: logger}
}

// Append stores a message, trims the retention window and broadcasts
// new-chat-message.
func (r *Relay) Append(userID, userName, role, text string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		Message:   text,
		UserID:    userID,
		UserName:  userName,
		Role:      role,
		Timestamp: r.clock.Now(),
	}

	r.mu.Lock()
	r.messages = append(r.messages, msg)
	if len(r.messages) > r.max {
		r.messages = r.messages[len(r.messages)-r.max:]
	}
	r.mu.Unlock()

	r.logger.Debug("chat message",
		zap.String("user_name", userName),
		zap.String("message_id", msg.ID),
	)
	r.sink.Broadcast("new-chat-message", msg)
	return msg
}

// Messages returns retained messages, oldest first.
func (r *Relay) Messages() []models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out
}
