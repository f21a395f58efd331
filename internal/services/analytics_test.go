package services

import (
	"context"
	"errors"
	"testing"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEventLog struct {
	saved []*domain.AuctionEvent
	err   error
}

func (m *memEventLog) SaveBidEvent(_ context.Context, event *domain.AuctionEvent) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, event)
	return nil
}

func (m *memEventLog) GetBidEvents(_ context.Context, auctionID string) ([]*domain.AuctionEvent, error) {
	var out []*domain.AuctionEvent
	for _, e := range m.saved {
		if e.AuctionID == auctionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type replaySubscriber []*domain.AuctionEvent

func (r replaySubscriber) SubscribeToAuctionEvents(ctx context.Context, handler domain.EventHandler) error {
	for _, e := range r {
		_ = handler(e)
	}
	return ctx.Err()
}

func TestAnalyticsService_RecordsEveryEventType(t *testing.T) {
	store := &memEventLog{}
	svc := NewAnalyticsService(store, logger.NewNop())

	events := replaySubscriber{
		{Type: domain.EventBidAccepted, AuctionID: "a1", UserID: "alice", Timestamp: baseTime},
		{Type: domain.EventBidRejected, AuctionID: "a1", UserID: "bob", Reason: domain.ReasonBelowMinimum, Timestamp: baseTime},
		{Type: domain.EventAuctionClosed, AuctionID: "a1", Timestamp: baseTime},
	}
	require.NoError(t, svc.Start(context.Background(), events))

	got, err := store.GetBidEvents(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.EventBidRejected, got[1].Type)
}

func TestAnalyticsService_RecordPropagatesStoreErrors(t *testing.T) {
	store := &memEventLog{err: errors.New("db down")}
	svc := NewAnalyticsService(store, logger.NewNop())

	err := svc.Record(context.Background(), &domain.AuctionEvent{Type: domain.EventBidAccepted, AuctionID: "a1"})
	assert.EqualError(t, err, "db down")
}
