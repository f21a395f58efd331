package services

import (
	"context"
	"fmt"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"
)

// EventListener turns engine events from the shared channel into realtime
// messages for the connections held by this instance.
type EventListener struct {
	broadcaster       domain.AuctionBroadcaster
	notifier          domain.UserNotifier
	connectionManager domain.ConnectionManager
	log               logger.Logger
}

func NewEventListener(broadcaster domain.AuctionBroadcaster, notifier domain.UserNotifier,
	connectionManager domain.ConnectionManager, log logger.Logger) *EventListener {
	return &EventListener{
		broadcaster:       broadcaster,
		notifier:          notifier,
		connectionManager: connectionManager,
		log:               log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToAuctionEvents(ctx, el.HandleEvent)
}

func (el *EventListener) HandleEvent(event *domain.AuctionEvent) error {
	ctx := context.Background()
	el.log.Debug("Handling auction event", "type", event.Type, "auction_id", event.AuctionID)

	switch event.Type {
	case domain.EventBidAccepted:
		return el.broadcaster.BroadcastToAuction(ctx, event.AuctionID, map[string]interface{}{
			"type":       event.Type,
			"auction_id": event.AuctionID,
			"amount":     event.Amount,
			"bidder_id":  event.UserID,
			"timestamp":  event.Timestamp,
		})
	case domain.EventBidRejected:
		// Only the submitter learns about a rejection.
		message := map[string]interface{}{
			"type":       event.Type,
			"auction_id": event.AuctionID,
			"request_id": event.RequestID,
			"reason":     event.Reason,
			"amount":     event.Amount,
			"timestamp":  event.Timestamp,
		}
		if event.Minimum != nil {
			message["minimum"] = event.Minimum
		}
		return el.notifier.NotifyUser(ctx, event.AuctionID, event.UserID, message)
	case domain.EventAuctionStarted:
		return el.broadcaster.BroadcastToAuction(ctx, event.AuctionID, map[string]interface{}{
			"type":       event.Type,
			"auction_id": event.AuctionID,
			"end_time":   event.EndTime,
			"timestamp":  event.Timestamp,
		})
	case domain.EventAuctionWon:
		return el.notifier.NotifyUser(ctx, event.AuctionID, event.UserID, map[string]interface{}{
			"type":       event.Type,
			"auction_id": event.AuctionID,
			"amount":     event.Amount,
			"timestamp":  event.Timestamp,
		})
	case domain.EventAuctionClosed:
		return el.finish(ctx, event, map[string]interface{}{
			"type":        event.Type,
			"auction_id":  event.AuctionID,
			"final_price": event.Amount,
			"winner_id":   event.UserID,
			"timestamp":   event.Timestamp,
		})
	case domain.EventAuctionCanceled:
		return el.finish(ctx, event, map[string]interface{}{
			"type":       event.Type,
			"auction_id": event.AuctionID,
			"timestamp":  event.Timestamp,
		})
	case domain.EventAuctionCreated:
		return el.broadcaster.BroadcastToAll(ctx, map[string]interface{}{
			"type":           event.Type,
			"auction_id":     event.AuctionID,
			"item_id":        event.ItemID,
			"starting_price": event.Amount,
			"start_time":     event.StartTime,
			"end_time":       event.EndTime,
			"timestamp":      event.Timestamp,
		})
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}

// finish delivers the final message of an auction and closes its connections.
func (el *EventListener) finish(ctx context.Context, event *domain.AuctionEvent, message map[string]interface{}) error {
	if err := el.broadcaster.BroadcastToAuction(ctx, event.AuctionID, message); err != nil {
		el.log.Error("Failed to broadcast final auction event", "type", event.Type, "error", err)
		return err
	}

	if err := el.connectionManager.CloseAndUnregisterConnections(event.AuctionID); err != nil {
		el.log.Error("Failed to finalize connections for auction", "auction_id",
			event.AuctionID, "error", err)
		return err
	}
	return nil
}
