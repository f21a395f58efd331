package repositories

import (
	"context"
	"time"

	"auction-engine/internal/domain"

	"github.com/shopspring/decimal"
)

type AuctionRepository interface {
	CreateAuction(ctx context.Context, auction *domain.Auction) error
	GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error)
	// CompareAndSwapPrice writes price and leader only if the stored version still
	// equals expectedVersion, returning domain.ErrVersionConflict otherwise.
	CompareAndSwapPrice(ctx context.Context, auctionID string, expectedVersion int64, newPrice decimal.Decimal, newLeader string) error
	// SetStatus moves an auction from one status to another, returning
	// domain.ErrInvalidTransition when the stored status is no longer from.
	SetStatus(ctx context.Context, auctionID string, from, to domain.AuctionStatus) error
	ListStartDue(ctx context.Context, now time.Time) ([]*domain.Auction, error)
	ListEndDue(ctx context.Context, now time.Time) ([]*domain.Auction, error)
	ListByStatus(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error)
}
