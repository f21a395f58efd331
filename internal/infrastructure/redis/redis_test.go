package redis

import (
	"context"
	"testing"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func bidRequest(id, auctionID, bidder string, amount int64) *domain.BidRequest {
	return &domain.BidRequest{
		ID:         id,
		AuctionID:  auctionID,
		BidderID:   bidder,
		Amount:     decimal.NewFromInt(amount),
		ReceivedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisBidQueue_FIFO(t *testing.T) {
	_, client := newTestRedis(t)
	queue := NewRedisBidQueue(client, "auction")
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, bidRequest("r1", "a1", "alice", 110000)))
	require.NoError(t, queue.Enqueue(ctx, bidRequest("r2", "a1", "bob", 120000)))
	require.NoError(t, queue.Enqueue(ctx, bidRequest("r3", "a2", "carol", 5)))

	n, err := queue.Len(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := queue.Dequeue(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "r1", first.ID)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(110000)))
	assert.True(t, first.ReceivedAt.Equal(time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)))

	second, err := queue.Dequeue(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "r2", second.ID)

	_, err = queue.Dequeue(ctx, "a1")
	require.ErrorIs(t, err, domain.ErrQueueEmpty)

	other, err := queue.Dequeue(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "carol", other.BidderID)
}

func TestRedisBidQueue_Backlogged(t *testing.T) {
	_, client := newTestRedis(t)
	queue := NewRedisBidQueue(client, "auction")
	ctx := context.Background()

	ids, err := queue.Backlogged(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, queue.Enqueue(ctx, bidRequest("r1", "a1", "alice", 110000)))
	require.NoError(t, queue.Enqueue(ctx, bidRequest("r2", "a2", "bob", 120000)))
	// Neighbouring keys under the same prefix are not queues.
	require.NoError(t, client.Set(ctx, "auction:a3:drain_lock", "owner", 0).Err())
	require.NoError(t, client.HSet(ctx, "auction:a4", "status", "active").Err())

	_, err = queue.Dequeue(ctx, "a2")
	require.NoError(t, err)

	ids, err = queue.Backlogged(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids)
}

func TestRedisSnapshotCache(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewRedisSnapshotCache(client)
	ctx := context.Background()

	_, err := cache.GetSnapshot(ctx, "a1")
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	end := time.Date(2026, 10, 16, 13, 0, 0, 0, time.UTC)
	require.NoError(t, cache.SetSnapshot(ctx, &domain.AuctionSnapshot{
		AuctionID:      "a1",
		Status:         domain.AuctionActive,
		MinimumNextBid: decimal.NewFromInt(110000),
		EndTime:        end,
		Version:        1,
	}))

	got, err := cache.GetSnapshot(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionActive, got.Status)
	assert.False(t, got.CurrentPrice.Valid)
	assert.True(t, got.MinimumNextBid.Equal(decimal.NewFromInt(110000)))
	assert.True(t, got.EndTime.Equal(end))

	require.NoError(t, cache.SetSnapshot(ctx, &domain.AuctionSnapshot{
		AuctionID:      "a1",
		Status:         domain.AuctionActive,
		CurrentPrice:   decimal.NewNullDecimal(decimal.NewFromInt(120000)),
		LeaderID:       "bob",
		MinimumNextBid: decimal.NewFromInt(130000),
		EndTime:        end,
		Version:        3,
	}))

	// An older version arriving late is ignored.
	require.NoError(t, cache.SetSnapshot(ctx, &domain.AuctionSnapshot{
		AuctionID:      "a1",
		Status:         domain.AuctionActive,
		CurrentPrice:   decimal.NewNullDecimal(decimal.NewFromInt(110000)),
		LeaderID:       "alice",
		MinimumNextBid: decimal.NewFromInt(120000),
		EndTime:        end,
		Version:        2,
	}))

	got, err = cache.GetSnapshot(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, "bob", got.LeaderID)
	assert.True(t, got.CurrentPrice.Decimal.Equal(decimal.NewFromInt(120000)))
}

func TestEventPubSub(t *testing.T) {
	mr, client := newTestRedis(t)
	publisher := NewEventPublisher(client)
	subscriber := NewRedisEventSubscriber(client, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *domain.AuctionEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- subscriber.SubscribeToAuctionEvents(ctx, func(event *domain.AuctionEvent) error {
			received <- event
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(eventsChannel)[eventsChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	amount := decimal.NewFromInt(110000)
	require.NoError(t, publisher.PublishAuctionEvent(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidAccepted,
		AuctionID: "a1",
		UserID:    "alice",
		Amount:    &amount,
		Timestamp: time.Now().UTC(),
	}))

	select {
	case event := <-received:
		assert.Equal(t, domain.EventBidAccepted, event.Type)
		assert.Equal(t, "a1", event.AuctionID)
		require.NotNil(t, event.Amount)
		assert.True(t, event.Amount.Equal(amount))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
