package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"auction-engine/internal/domain"

	"github.com/shopspring/decimal"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) CommitBid(ctx context.Context, bid *domain.Bid, expectedVersion int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bid commit: %w", err)
	}
	defer tx.Rollback()

	if err := compareAndSwapPrice(ctx, tx, bid.AuctionID, expectedVersion, bid.Amount, bid.BidderID, bid.AcceptedAt); err != nil {
		return err
	}

	query := `
        INSERT INTO bids (id, auction_id, bidder_id, amount, accepted_at)
        VALUES (?, ?, ?, ?, ?)
    `
	if _, err := tx.ExecContext(ctx, query,
		bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.AcceptedAt.UTC()); err != nil {
		return fmt.Errorf("insert bid %s: %w", bid.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bid %s: %w", bid.ID, err)
	}
	return nil
}

func (r *MySQLBidRepository) GetBidHistory(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, amount, accepted_at
        FROM bids
        WHERE auction_id = ?
        ORDER BY accepted_at ASC, amount ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bid history for %s: %w", auctionID, err)
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		if err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID, &bid.Amount, &bid.AcceptedAt); err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}

type MySQLBidEventRepository struct {
	db *sql.DB
}

func NewMySQLBidEventRepository(db *sql.DB) *MySQLBidEventRepository {
	return &MySQLBidEventRepository{db: db}
}

func (r *MySQLBidEventRepository) SaveBidEvent(ctx context.Context, event *domain.AuctionEvent) error {
	query := `
        INSERT INTO bid_events (auction_id, user_id, event_type, amount, reason, request_id, timestamp, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	var amount interface{}
	if event.Amount != nil {
		amount = *event.Amount
	}

	_, err := r.db.ExecContext(ctx, query,
		event.AuctionID, event.UserID, string(event.Type), amount,
		string(event.Reason), event.RequestID, event.Timestamp.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save %s event for %s: %w", event.Type, event.AuctionID, err)
	}
	return nil
}

func (r *MySQLBidEventRepository) GetBidEvents(ctx context.Context, auctionID string) ([]*domain.AuctionEvent, error) {
	query := `
        SELECT auction_id, user_id, event_type, amount, reason, request_id, timestamp
        FROM bid_events
        WHERE auction_id = ?
        ORDER BY id ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bid events for %s: %w", auctionID, err)
	}
	defer rows.Close()

	var events []*domain.AuctionEvent
	for rows.Next() {
		var event domain.AuctionEvent
		var eventType, reason string
		var amount decimal.NullDecimal

		err := rows.Scan(&event.AuctionID, &event.UserID, &eventType, &amount,
			&reason, &event.RequestID, &event.Timestamp)
		if err != nil {
			return nil, err
		}

		event.Type = domain.EventType(eventType)
		event.Reason = domain.RejectReason(reason)
		if amount.Valid {
			d := amount.Decimal
			event.Amount = &d
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
