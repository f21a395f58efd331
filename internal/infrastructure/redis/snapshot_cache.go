package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"auction-engine/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// setSnapshotScript writes the hash only when the incoming version is not older
// than the stored one, so a slow writer cannot roll the snapshot back.
var setSnapshotScript = redis.NewScript(`
    local stored = redis.call('HGET', KEYS[1], 'version')
    if stored and tonumber(stored) > tonumber(ARGV[1]) then
        return 0
    end
    redis.call('HSET', KEYS[1],
        'version', ARGV[1],
        'status', ARGV[2],
        'current_price', ARGV[3],
        'leader_id', ARGV[4],
        'minimum_next_bid', ARGV[5],
        'end_time', ARGV[6])
    return 1
`)

type RedisSnapshotCache struct {
	client *redis.Client
}

func NewRedisSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func snapshotKey(auctionID string) string {
	return fmt.Sprintf("auction:%s", auctionID)
}

func (r *RedisSnapshotCache) SetSnapshot(ctx context.Context, snapshot *domain.AuctionSnapshot) error {
	price := ""
	if snapshot.CurrentPrice.Valid {
		price = snapshot.CurrentPrice.Decimal.String()
	}

	err := setSnapshotScript.Run(ctx, r.client, []string{snapshotKey(snapshot.AuctionID)},
		snapshot.Version,
		snapshot.Status.String(),
		price,
		snapshot.LeaderID,
		snapshot.MinimumNextBid.String(),
		snapshot.EndTime.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("cache snapshot of %s: %w", snapshot.AuctionID, err)
	}
	return nil
}

func (r *RedisSnapshotCache) GetSnapshot(ctx context.Context, auctionID string) (*domain.AuctionSnapshot, error) {
	result, err := r.client.HGetAll(ctx, snapshotKey(auctionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read snapshot of %s: %w", auctionID, err)
	}
	if len(result) == 0 {
		return nil, domain.ErrSnapshotNotFound
	}

	snapshot := &domain.AuctionSnapshot{
		AuctionID: auctionID,
		LeaderID:  result["leader_id"],
	}

	status, ok := domain.ParseAuctionStatus(result["status"])
	if !ok {
		return nil, fmt.Errorf("snapshot of %s: %w", auctionID, domain.ErrUnknownStatus)
	}
	snapshot.Status = status

	if snapshot.Version, err = strconv.ParseInt(result["version"], 10, 64); err != nil {
		return nil, fmt.Errorf("snapshot of %s: parse version: %w", auctionID, err)
	}
	if p := result["current_price"]; p != "" {
		price, err := decimal.NewFromString(p)
		if err != nil {
			return nil, fmt.Errorf("snapshot of %s: parse price: %w", auctionID, err)
		}
		snapshot.CurrentPrice = decimal.NewNullDecimal(price)
	}
	if snapshot.MinimumNextBid, err = decimal.NewFromString(result["minimum_next_bid"]); err != nil {
		return nil, fmt.Errorf("snapshot of %s: parse minimum: %w", auctionID, err)
	}
	if snapshot.EndTime, err = time.Parse(time.RFC3339Nano, result["end_time"]); err != nil {
		return nil, fmt.Errorf("snapshot of %s: parse end time: %w", auctionID, err)
	}

	return snapshot, nil
}
