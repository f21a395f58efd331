package repositories

import (
	"context"

	"auction-engine/internal/domain"
)

type WinnerRepository interface {
	// CreateWinner returns domain.ErrWinnerExists if the auction already has one.
	CreateWinner(ctx context.Context, winner *domain.AuctionWinner) error
	GetWinner(ctx context.Context, auctionID string) (*domain.AuctionWinner, error)
}
