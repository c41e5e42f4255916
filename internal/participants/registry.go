package participants

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/common/clock"
	"github.com/classpulse/backend/internal/models"
)

// Registry tracks currently connected participants. A connection handle
// (WebSocket client ID) binds to at most one participant at a time.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*models.Participant
	byClient map[string]*models.Participant
	order    []string // participant IDs in join order
	clock    clock.Clock
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(clk clock.Clock, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		byID:     make(map[string]*models.Participant),
		byClient: make(map[string]*models.Participant),
		clock:    clk,
		logger:   logger,
	}
}

// Join registers a participant for the given connection. A second join on
// the same connection is a benign no-op: the existing participant is
// returned and a warning logged.
func (r *Registry) Join(clientID, name, role string) *models.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byClient[clientID]; ok {
		r.logger.Warn("client already joined",
			zap.String("client_id", clientID),
			zap.String("user_id", existing.ID),
		)
		return existing
	}

	now := r.clock.Now()
	id := fmt.Sprintf("%s_%s_%d", role, name, now.UnixMilli())
	// Same name, role and millisecond would collide; disambiguate.
	for i := 1; ; i++ {
		if _, taken := r.byID[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s_%s_%d_%d", role, name, now.UnixMilli(), i)
	}

	p := &models.Participant{
		ID:       id,
		Name:     name,
		Role:     role,
		ClientID: clientID,
		JoinedAt: now,
	}
	r.byID[id] = p
	r.byClient[clientID] = p
	r.order = append(r.order, id)

	r.logger.Info("user joined",
		zap.String("user_id", id),
		zap.String("name", name),
		zap.String("role", role),
		zap.Int("total_users", len(r.byID)),
	)
	return p
}

// Leave removes the participant bound to the connection. Returns nil if the
// connection had no participant.
func (r *Registry) Leave(clientID string) *models.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byClient[clientID]
	if !ok {
		return nil
	}
	r.removeLocked(p)
	r.logger.Info("user left",
		zap.String("user_id", p.ID),
		zap.String("name", p.Name),
		zap.Int("remaining_users", len(r.byID)),
	)
	return p
}

// Kick removes a participant by ID. The caller is responsible for closing
// the participant's connection. Returns false if the ID is unknown.
func (r *Registry) Kick(participantID string) (*models.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[participantID]
	if !ok {
		return nil, false
	}
	r.removeLocked(p)
	r.logger.Info("user kicked",
		zap.String("user_id", p.ID),
		zap.String("name", p.Name),
		zap.String("role", p.Role),
	)
	return p, true
}

func (r *Registry) removeLocked(p *models.Participant) {
	delete(r.byID, p.ID)
	delete(r.byClient, p.ClientID)
	for i, id := range r.order {
		if id == p.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// ByClient returns the participant bound to a connection, or nil.
func (r *Registry) ByClient(clientID string) *models.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byClient[clientID]
}

// Count returns the number of connected participants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// List returns connected participants in join order.
func (r *Registry) List() []*models.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// CountPayload builds the user-count-updated broadcast payload.
func (r *Registry) CountPayload() map[string]interface{} {
	list := r.List()
	users := make([]map[string]string, 0, len(list))
	for _, p := range list {
		users = append(users, map[string]string{
			"id":   p.ID,
			"name": p.Name,
			"role": p.Role,
		})
	}
	return map[string]interface{}{
		"count": len(list),
		"users": users,
	}
}
