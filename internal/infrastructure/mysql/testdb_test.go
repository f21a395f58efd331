package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"auction-engine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// sqliteSchema mirrors schema without the MySQL-only index and auto-increment syntax.
var sqliteSchema = []string{
	`CREATE TABLE auctions (
        id             TEXT     NOT NULL PRIMARY KEY,
        item_id        TEXT     NOT NULL,
        start_time     DATETIME NOT NULL,
        end_time       DATETIME NOT NULL,
        status         INTEGER  NOT NULL,
        starting_price DECIMAL  NOT NULL,
        bid_increment  DECIMAL  NOT NULL,
        current_price  DECIMAL  NULL,
        leader_id      TEXT     NULL,
        version        INTEGER  NOT NULL DEFAULT 0,
        created_at     DATETIME NOT NULL,
        updated_at     DATETIME NOT NULL
    )`,
	`CREATE TABLE bids (
        id          TEXT     NOT NULL PRIMARY KEY,
        auction_id  TEXT     NOT NULL,
        bidder_id   TEXT     NOT NULL,
        amount      DECIMAL  NOT NULL,
        accepted_at DATETIME NOT NULL
    )`,
	`CREATE TABLE registrations (
        auction_id TEXT     NOT NULL,
        user_id    TEXT     NOT NULL,
        status     TEXT     NOT NULL,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL,
        PRIMARY KEY (auction_id, user_id)
    )`,
	`CREATE TABLE auction_winners (
        auction_id TEXT     NOT NULL PRIMARY KEY,
        winner_id  TEXT     NOT NULL,
        amount     DECIMAL  NOT NULL,
        decided_at DATETIME NOT NULL
    )`,
	`CREATE TABLE bid_events (
        id         INTEGER  PRIMARY KEY,
        auction_id TEXT     NOT NULL,
        user_id    TEXT     NOT NULL,
        event_type TEXT     NOT NULL,
        amount     DECIMAL  NULL,
        reason     TEXT     NOT NULL,
        request_id TEXT     NOT NULL,
        timestamp  DATETIME NOT NULL,
        created_at DATETIME NOT NULL
    )`,
}

// newTestDB opens a fresh in-memory SQLite database with the tables applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	// Every new connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

var baseTime = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newAuction(id string, status domain.AuctionStatus, start, end time.Time) *domain.Auction {
	return &domain.Auction{
		ID:            id,
		ItemID:        "item-" + id,
		StartTime:     start,
		EndTime:       end,
		Status:        status,
		StartingPrice: decimal.NewFromInt(100000),
		BidIncrement:  decimal.NewFromInt(10000),
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
}

func seedAuction(t *testing.T, repo *MySQLAuctionRepository, auction *domain.Auction) {
	t.Helper()
	require.NoError(t, repo.CreateAuction(context.Background(), auction))
}
