package services

import (
	"context"
	"testing"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	scope     string
	auctionID string
	userID    string
	message   map[string]interface{}
}

// recordingNotifier captures what the listener routes where.
type recordingNotifier struct {
	sent []sentMessage
}

func (r *recordingNotifier) BroadcastToAuction(_ context.Context, auctionID string, message interface{}) error {
	r.sent = append(r.sent, sentMessage{scope: "auction", auctionID: auctionID, message: message.(map[string]interface{})})
	return nil
}

func (r *recordingNotifier) BroadcastToAll(_ context.Context, message interface{}) error {
	r.sent = append(r.sent, sentMessage{scope: "all", message: message.(map[string]interface{})})
	return nil
}

func (r *recordingNotifier) NotifyUser(_ context.Context, auctionID, userID string, message interface{}) error {
	r.sent = append(r.sent, sentMessage{scope: "user", auctionID: auctionID, userID: userID, message: message.(map[string]interface{})})
	return nil
}

type recordingConnections struct {
	domain.ConnectionManager
	closed []string
}

func (r *recordingConnections) CloseAndUnregisterConnections(auctionID string) error {
	r.closed = append(r.closed, auctionID)
	return nil
}

func TestEventListener_Routing(t *testing.T) {
	price := amount(120000)
	minimum := amount(130000)

	tests := []struct {
		name      string
		event     *domain.AuctionEvent
		scope     string
		userID    string
		closes    bool
		checkKeys map[string]interface{}
	}{
		{
			name:      "accepted bid goes to the whole auction",
			event:     &domain.AuctionEvent{Type: domain.EventBidAccepted, AuctionID: "a1", UserID: "bob", Amount: &price},
			scope:     "auction",
			checkKeys: map[string]interface{}{"bidder_id": "bob", "amount": &price},
		},
		{
			name: "rejection only reaches the submitter",
			event: &domain.AuctionEvent{Type: domain.EventBidRejected, AuctionID: "a1", UserID: "carol",
				Reason: domain.ReasonBelowMinimum, Minimum: &minimum},
			scope:     "user",
			userID:    "carol",
			checkKeys: map[string]interface{}{"reason": domain.ReasonBelowMinimum, "minimum": &minimum},
		},
		{
			name:   "won goes to the winner",
			event:  &domain.AuctionEvent{Type: domain.EventAuctionWon, AuctionID: "a1", UserID: "bob", Amount: &price},
			scope:  "user",
			userID: "bob",
		},
		{
			name:      "closed broadcasts and closes connections",
			event:     &domain.AuctionEvent{Type: domain.EventAuctionClosed, AuctionID: "a1", UserID: "bob", Amount: &price},
			scope:     "auction",
			closes:    true,
			checkKeys: map[string]interface{}{"winner_id": "bob", "final_price": &price},
		},
		{
			name:   "canceled broadcasts and closes connections",
			event:  &domain.AuctionEvent{Type: domain.EventAuctionCanceled, AuctionID: "a1"},
			scope:  "auction",
			closes: true,
		},
		{
			name:  "started broadcasts",
			event: &domain.AuctionEvent{Type: domain.EventAuctionStarted, AuctionID: "a1"},
			scope: "auction",
		},
		{
			name:      "created is unscoped",
			event:     &domain.AuctionEvent{Type: domain.EventAuctionCreated, AuctionID: "a2", ItemID: "item-2"},
			scope:     "all",
			checkKeys: map[string]interface{}{"item_id": "item-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			conns := &recordingConnections{}
			listener := NewEventListener(notifier, notifier, conns, logger.NewNop())

			require.NoError(t, listener.HandleEvent(tt.event))

			require.Len(t, notifier.sent, 1)
			sent := notifier.sent[0]
			assert.Equal(t, tt.scope, sent.scope)
			assert.Equal(t, tt.userID, sent.userID)
			assert.Equal(t, tt.event.Type, sent.message["type"])
			for key, want := range tt.checkKeys {
				assert.Equal(t, want, sent.message[key], key)
			}

			if tt.closes {
				assert.Equal(t, []string{"a1"}, conns.closed)
			} else {
				assert.Empty(t, conns.closed)
			}
		})
	}
}

func TestEventListener_UnknownType(t *testing.T) {
	notifier := &recordingNotifier{}
	listener := NewEventListener(notifier, notifier, &recordingConnections{}, logger.NewNop())
	require.Error(t, listener.HandleEvent(&domain.AuctionEvent{Type: "auction_extended", AuctionID: "a1"}))
}
