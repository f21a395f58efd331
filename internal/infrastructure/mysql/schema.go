package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// schema is applied statement by statement so the DSN does not need multiStatements.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS auctions (
        id             VARCHAR(64)   NOT NULL PRIMARY KEY,
        item_id        VARCHAR(64)   NOT NULL,
        start_time     DATETIME(6)   NOT NULL,
        end_time       DATETIME(6)   NOT NULL,
        status         TINYINT       NOT NULL,
        starting_price DECIMAL(18,2) NOT NULL,
        bid_increment  DECIMAL(18,2) NOT NULL,
        current_price  DECIMAL(18,2) NULL,
        leader_id      VARCHAR(64)   NULL,
        version        BIGINT        NOT NULL DEFAULT 0,
        created_at     DATETIME(6)   NOT NULL,
        updated_at     DATETIME(6)   NOT NULL,
        INDEX idx_auctions_status_start (status, start_time),
        INDEX idx_auctions_status_end (status, end_time)
    )`,
	`CREATE TABLE IF NOT EXISTS bids (
        id          VARCHAR(64)   NOT NULL PRIMARY KEY,
        auction_id  VARCHAR(64)   NOT NULL,
        bidder_id   VARCHAR(64)   NOT NULL,
        amount      DECIMAL(18,2) NOT NULL,
        accepted_at DATETIME(6)   NOT NULL,
        INDEX idx_bids_auction (auction_id, accepted_at)
    )`,
	`CREATE TABLE IF NOT EXISTS registrations (
        auction_id VARCHAR(64) NOT NULL,
        user_id    VARCHAR(64) NOT NULL,
        status     VARCHAR(16) NOT NULL,
        created_at DATETIME(6) NOT NULL,
        updated_at DATETIME(6) NOT NULL,
        PRIMARY KEY (auction_id, user_id)
    )`,
	`CREATE TABLE IF NOT EXISTS auction_winners (
        auction_id VARCHAR(64)   NOT NULL PRIMARY KEY,
        winner_id  VARCHAR(64)   NOT NULL,
        amount     DECIMAL(18,2) NOT NULL,
        decided_at DATETIME(6)   NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS bid_events (
        id         BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
        auction_id VARCHAR(64)   NOT NULL,
        user_id    VARCHAR(64)   NOT NULL,
        event_type VARCHAR(32)   NOT NULL,
        amount     DECIMAL(18,2) NULL,
        reason     VARCHAR(64)   NOT NULL,
        request_id VARCHAR(64)   NOT NULL,
        timestamp  DATETIME(6)   NOT NULL,
        created_at DATETIME(6)   NOT NULL,
        INDEX idx_bid_events_auction (auction_id, timestamp)
    )`,
}

// EnsureSchema creates any missing tables. It never alters existing ones.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const errDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}
