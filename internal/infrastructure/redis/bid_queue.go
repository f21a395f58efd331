package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"auction-engine/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisBidQueue keeps one list per auction. RPUSH appends at the tail and LPOP
// takes from the head, so each list is FIFO. Durability relies on Redis
// persistence (AOF) being enabled on the server.
type RedisBidQueue struct {
	client *redis.Client
	prefix string
}

func NewRedisBidQueue(client *redis.Client, prefix string) *RedisBidQueue {
	return &RedisBidQueue{client: client, prefix: prefix}
}

func (q *RedisBidQueue) key(auctionID string) string {
	return fmt.Sprintf("%s:%s:bids", q.prefix, auctionID)
}

func (q *RedisBidQueue) Enqueue(ctx context.Context, req *domain.BidRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode bid request %s: %w", req.ID, err)
	}

	if err := q.client.RPush(ctx, q.key(req.AuctionID), data).Err(); err != nil {
		return fmt.Errorf("enqueue bid request %s: %w", req.ID, err)
	}
	return nil
}

func (q *RedisBidQueue) Dequeue(ctx context.Context, auctionID string) (*domain.BidRequest, error) {
	data, err := q.client.LPop(ctx, q.key(auctionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue bid for %s: %w", auctionID, err)
	}

	var req domain.BidRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode bid request for %s: %w: %v", auctionID, domain.ErrMalformedRequest, err)
	}
	return &req, nil
}

func (q *RedisBidQueue) Len(ctx context.Context, auctionID string) (int64, error) {
	n, err := q.client.LLen(ctx, q.key(auctionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length for %s: %w", auctionID, err)
	}
	return n, nil
}

// Backlogged scans for non-empty queues. Redis drops a list with its last
// element, so every matching key holds at least one request.
func (q *RedisBidQueue) Backlogged(ctx context.Context) ([]string, error) {
	prefix, suffix := q.prefix+":", ":bids"

	var auctionIDs []string
	iter := q.client.Scan(ctx, 0, prefix+"*"+suffix, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		auctionID := strings.TrimSuffix(strings.TrimPrefix(key, prefix), suffix)
		if auctionID == "" || auctionID == key {
			continue
		}
		auctionIDs = append(auctionIDs, auctionID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan bid queues: %w", err)
	}
	return auctionIDs, nil
}
