package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	eventChannel   = "classroom:events"
	publishTimeout = 5 * time.Second
)

// mirrorPayload is the message published to Redis for external observers.
type mirrorPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// RedisMirror implements EventMirror using Redis pub/sub. It is
// publish-only: the session state never depends on it, it just lets
// external tools (dashboards, log tailers) follow the event stream.
type RedisMirror struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisMirror creates a Redis event mirror.
func NewRedisMirror(client *redis.Client, logger *zap.Logger) *RedisMirror {
	return &RedisMirror{client: client, logger: logger}
}

// PublishEvent publishes an event to the classroom events channel.
func (r *RedisMirror) PublishEvent(event string, payload []byte) error {
	body, err := json.Marshal(mirrorPayload{Event: event, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, eventChannel, body).Err(); err != nil {
		r.logger.Warn("event mirror publish failed", zap.String("event", event), zap.Error(err))
		return err
	}
	return nil
}
