package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auction-engine/internal/domain"
)

type MySQLWinnerRepository struct {
	db *sql.DB
}

func NewMySQLWinnerRepository(db *sql.DB) *MySQLWinnerRepository {
	return &MySQLWinnerRepository{db: db}
}

func (r *MySQLWinnerRepository) CreateWinner(ctx context.Context, winner *domain.AuctionWinner) error {
	query := `
        INSERT INTO auction_winners (auction_id, winner_id, amount, decided_at)
        VALUES (?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		winner.AuctionID, winner.WinnerID, winner.Amount, winner.DecidedAt.UTC())
	if isDuplicateKey(err) {
		return fmt.Errorf("record winner of %s: %w", winner.AuctionID, domain.ErrWinnerExists)
	}
	if err != nil {
		return fmt.Errorf("record winner of %s: %w", winner.AuctionID, err)
	}
	return nil
}

func (r *MySQLWinnerRepository) GetWinner(ctx context.Context, auctionID string) (*domain.AuctionWinner, error) {
	query := `SELECT auction_id, winner_id, amount, decided_at FROM auction_winners WHERE auction_id = ?`

	var winner domain.AuctionWinner
	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&winner.AuctionID, &winner.WinnerID, &winner.Amount, &winner.DecidedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get winner of %s: %w", auctionID, domain.ErrWinnerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get winner of %s: %w", auctionID, err)
	}
	return &winner, nil
}
