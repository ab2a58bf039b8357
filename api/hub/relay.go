package hub

import (
	"context"

	"coderanker/pkg/logger"
	pkgredis "coderanker/pkg/redis"

	"github.com/redis/go-redis/v9"
)

// Subscriber opens a redis subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Relay turns the re-rank notifications of other processes into leaderboard broadcasts.
type Relay struct {
	hub        *Hub
	subscriber Subscriber
	logger     logger.Logger
}

// NewRelay creates a relay for the hub.
func NewRelay(hub *Hub, subscriber Subscriber, log logger.Logger) *Relay {
	if log == nil {
		log = logger.Nop{}
	}
	return &Relay{hub: hub, subscriber: subscriber, logger: log}
}

// Run listens to the re-rank channel until the context ends.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.subscriber.Subscribe(ctx, pkgredis.ReRankedChannel)
	defer pubsub.Close()

	// Wait for the subscription confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload string) {
	r.logger.Infof("Re-rank of %s users announced, pushing the leaderboard", payload)
	r.hub.BroadcastLeaderboard(ctx)
}
