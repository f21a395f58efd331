package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"auction-engine/internal/domain"

	"github.com/go-redis/redis/v8"
)

const eventsChannel = "auction_events"

// EventPublisherImpl publishes over Redis pub/sub. Delivery is fire-and-forget:
// instances that are not subscribed at publish time never see the event.
type EventPublisherImpl struct {
	client  *redis.Client
	channel string
}

func NewEventPublisher(client *redis.Client) *EventPublisherImpl {
	return &EventPublisherImpl{client: client, channel: eventsChannel}
}

func (r *EventPublisherImpl) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s event for %s: %w", event.Type, event.AuctionID, err)
	}
	return nil
}
