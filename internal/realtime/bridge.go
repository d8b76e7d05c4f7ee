package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civicroot/platform/internal/shared/types"
)

// envelope is the cross-node broadcast message carried over redis
type envelope struct {
	Origin  string          `json:"origin"`
	Rooms   []string        `json:"rooms"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge relays hub broadcasts across nodes through a redis pub/sub
// channel, so clients connected to different instances see the same
// events. Each node tags messages with its own ID and ignores them on
// the way back in.
type Bridge struct {
	rdb     *redis.Client
	channel string
	nodeID  string
	hub     *Hub
	logger  *zap.Logger
}

// NewBridge creates a bridge and attaches it to the hub
func NewBridge(rdb *redis.Client, channel string, hub *Hub, logger *zap.Logger) *Bridge {
	b := &Bridge{
		rdb:     rdb,
		channel: channel,
		nodeID:  types.NewID().String(),
		hub:     hub,
		logger:  logger,
	}
	hub.SetBridge(b)
	return b
}

// Publish forwards a local broadcast to the other nodes. Best-effort:
// a publish failure is logged and the local delivery stands.
func (b *Bridge) Publish(ctx context.Context, rooms []string, event string, payload json.RawMessage) {
	data, err := json.Marshal(envelope{
		Origin:  b.nodeID,
		Rooms:   rooms,
		Event:   event,
		Payload: payload,
	})
	if err != nil {
		b.logger.Warn("failed to encode bridge message", zap.Error(err))
		return
	}

	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Warn("failed to publish bridge message", zap.Error(err))
	}
}

// Run consumes broadcasts from other nodes until the context ends
func (b *Bridge) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("invalid bridge message", zap.Error(err))
				continue
			}

			if env.Origin == b.nodeID {
				continue
			}

			b.hub.DeliverLocal(env.Rooms, env.Event, env.Payload)
		}
	}
}
