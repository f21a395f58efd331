package services

import (
	"context"

	"auction-engine/internal/domain"
	"auction-engine/internal/domain/repositories"
	"auction-engine/pkg/logger"
)

// AnalyticsService persists every event seen on the channel into the audit
// trail, rejected bids included.
type AnalyticsService struct {
	events repositories.BidEventRepository
	log    logger.Logger
}

func NewAnalyticsService(events repositories.BidEventRepository, log logger.Logger) *AnalyticsService {
	return &AnalyticsService{events: events, log: log}
}

func (as *AnalyticsService) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	as.log.Info("Starting analytics service")
	return subscriber.SubscribeToAuctionEvents(ctx, func(event *domain.AuctionEvent) error {
		return as.Record(ctx, event)
	})
}

func (as *AnalyticsService) Record(ctx context.Context, event *domain.AuctionEvent) error {
	as.log.Debug("Storing auction event", "type", event.Type, "auction_id", event.AuctionID, "user_id", event.UserID)
	return as.events.SaveBidEvent(ctx, event)
}
