package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const bridgeChannel = "teamflow:rooms"

// busMessage is the envelope the bridge exchanges over Redis pub/sub. Origin
// lets an instance skip its own publishes, which it already delivered locally.
type busMessage struct {
	Origin string          `json:"origin"`
	Flavor RoomFlavor      `json:"flavor"`
	Room   string          `json:"room"`
	Data   json.RawMessage `json:"data"`
}

// RedisBridge fans room broadcasts out across relay instances over Redis
// pub/sub. It carries no durable state: a restarted instance starts from an
// empty room index either way.
type RedisBridge struct {
	instanceID string
	rdb        *redis.Client
}

// NewRedisBridge connects to Redis via a redis:// URL and verifies the
// connection.
func NewRedisBridge(ctx context.Context, redisURL string) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBridge{
		instanceID: uuid.New().String(),
		rdb:        rdb,
	}, nil
}

// Publish forwards one room broadcast to the other relay instances.
func (b *RedisBridge) Publish(flavor RoomFlavor, roomID string, data []byte) error {
	msg, err := json.Marshal(busMessage{
		Origin: b.instanceID,
		Flavor: flavor,
		Room:   roomID,
		Data:   data,
	})
	if err != nil {
		return err
	}
	return b.rdb.Publish(context.Background(), bridgeChannel, msg).Err()
}

// run consumes bridge messages until ctx is cancelled, handing each remote
// broadcast to fanOut for local delivery. Messages this instance published are
// skipped.
func (b *RedisBridge) run(ctx context.Context, fanOut func(flavor RoomFlavor, roomID string, data []byte, excludeID string)) {
	pubsub := b.rdb.Subscribe(ctx, bridgeChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var bus busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bus); err != nil {
				slog.Warn("undecodable bridge message dropped", "error", err)
				continue
			}
			if bus.Origin == b.instanceID {
				continue
			}
			fanOut(bus.Flavor, bus.Room, bus.Data, "")

		case <-ctx.Done():
			return
		}
	}
}

// Close releases the Redis connection.
func (b *RedisBridge) Close() error {
	return b.rdb.Close()
}
