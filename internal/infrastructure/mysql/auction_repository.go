package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/domain"

	"github.com/shopspring/decimal"
)

const auctionColumns = `id, item_id, start_time, end_time, status, starting_price, bid_increment,
        current_price, leader_id, version, created_at, updated_at`

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

func (r *MySQLAuctionRepository) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (` + auctionColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		auction.ID, auction.ItemID, auction.StartTime.UTC(), auction.EndTime.UTC(),
		int(auction.Status), auction.StartingPrice, auction.BidIncrement,
		auction.CurrentPrice, nullString(auction.LeaderID), auction.Version,
		auction.CreatedAt.UTC(), auction.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create auction %s: %w", auction.ID, err)
	}
	return nil
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return getAuction(ctx, r.db, auctionID)
}

func (r *MySQLAuctionRepository) CompareAndSwapPrice(ctx context.Context, auctionID string, expectedVersion int64,
	newPrice decimal.Decimal, newLeader string) error {
	return compareAndSwapPrice(ctx, r.db, auctionID, expectedVersion, newPrice, newLeader, time.Now())
}

func (r *MySQLAuctionRepository) SetStatus(ctx context.Context, auctionID string, from, to domain.AuctionStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("set status %s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}

	query := `UPDATE auctions SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, int(to), time.Now().UTC(), auctionID, int(from))
	if err != nil {
		return fmt.Errorf("set status of auction %s: %w", auctionID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set status of auction %s: %w", auctionID, err)
	}
	if affected == 0 {
		if _, err := getAuction(ctx, r.db, auctionID); err != nil {
			return err
		}
		return fmt.Errorf("set status of auction %s to %s: %w", auctionID, to, domain.ErrInvalidTransition)
	}
	return nil
}

func (r *MySQLAuctionRepository) ListStartDue(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ? AND start_time <= ? ORDER BY start_time ASC`
	return r.listAuctions(ctx, query, int(domain.AuctionPending), now.UTC())
}

func (r *MySQLAuctionRepository) ListEndDue(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ? AND end_time <= ? ORDER BY end_time ASC`
	return r.listAuctions(ctx, query, int(domain.AuctionActive), now.UTC())
}

func (r *MySQLAuctionRepository) ListByStatus(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ?`
	return r.listAuctions(ctx, query, int(status))
}

func (r *MySQLAuctionRepository) listAuctions(ctx context.Context, query string, args ...interface{}) ([]*domain.Auction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}

	return auctions, rows.Err()
}

func getAuction(ctx context.Context, q queryer, auctionID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`

	auction, err := scanAuction(q.QueryRowContext(ctx, query, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get auction %s: %w", auctionID, domain.ErrAuctionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return auction, nil
}

func compareAndSwapPrice(ctx context.Context, q queryer, auctionID string, expectedVersion int64,
	newPrice decimal.Decimal, newLeader string, at time.Time) error {
	query := `
        UPDATE auctions SET current_price = ?, leader_id = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?
    `
	res, err := q.ExecContext(ctx, query, newPrice, newLeader, at.UTC(), auctionID, expectedVersion)
	if err != nil {
		return fmt.Errorf("swap price of auction %s: %w", auctionID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap price of auction %s: %w", auctionID, err)
	}
	if affected == 0 {
		if _, err := getAuction(ctx, q, auctionID); err != nil {
			return err
		}
		return fmt.Errorf("swap price of auction %s at version %d: %w", auctionID, expectedVersion, domain.ErrVersionConflict)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var auction domain.Auction
	var status int
	var leader sql.NullString

	err := row.Scan(&auction.ID, &auction.ItemID, &auction.StartTime, &auction.EndTime,
		&status, &auction.StartingPrice, &auction.BidIncrement, &auction.CurrentPrice,
		&leader, &auction.Version, &auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return nil, err
	}

	auction.Status = domain.AuctionStatus(status)
	auction.LeaderID = leader.String
	return &auction, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
