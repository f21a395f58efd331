package repositories

import (
	"context"

	"auction-engine/internal/domain"
)

// BidRepository is the append-only bid ledger.
type BidRepository interface {
	// CommitBid appends the bid and moves the auction's price and leader to it in
	// one transaction, guarded by the auction version.
	CommitBid(ctx context.Context, bid *domain.Bid, expectedVersion int64) error
	GetBidHistory(ctx context.Context, auctionID string) ([]*domain.Bid, error)
}

// BidEventRepository stores the audit trail of every published event.
type BidEventRepository interface {
	SaveBidEvent(ctx context.Context, event *domain.AuctionEvent) error
	GetBidEvents(ctx context.Context, auctionID string) ([]*domain.AuctionEvent, error)
}
