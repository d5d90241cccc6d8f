package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/squadup/squadup"
)

// Subscriber pumps event envelopes from redis into the hub. Running it on a
// single goroutine preserves publish order per channel end to end.
type Subscriber struct {
	rdb *redis.Client
	hub *Hub
}

func NewSubscriber(rdb *redis.Client, hub *Hub) *Subscriber {
	return &Subscriber{
		rdb: rdb,
		hub: hub,
	}
}

// Run blocks until ctx is cancelled or the redis subscription fails.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.rdb.PSubscribe(ctx, "session:*", "identity:*", squadup.StaffChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event squadup.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Error("failed to unmarshal event",
					slog.String("error", err.Error()),
					slog.String("channel", msg.Channel),
					slog.String("module", "realtime"),
				)
				continue
			}
			s.hub.Dispatch(event)
		}
	}
}
