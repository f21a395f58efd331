package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventBidAccepted     EventType = "bid_accepted"
	EventBidRejected     EventType = "bid_rejected"
	EventAuctionCreated  EventType = "auction_created"
	EventAuctionStarted  EventType = "auction_started"
	EventAuctionClosed   EventType = "auction_closed"
	EventAuctionCanceled EventType = "auction_canceled"
	EventAuctionWon      EventType = "auction_won"
)

// AuctionEvent travels over the event channel between the engine and every
// realtime edge. Fields not relevant to a type are left zero.
type AuctionEvent struct {
	Type      EventType        `json:"type"`
	AuctionID string           `json:"auction_id,omitempty"`
	UserID    string           `json:"user_id,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Minimum   *decimal.Decimal `json:"minimum,omitempty"`
	Reason    RejectReason     `json:"reason,omitempty"`
	ItemID    string           `json:"item_id,omitempty"`
	StartTime *time.Time       `json:"start_time,omitempty"`
	EndTime   *time.Time       `json:"end_time,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Scoped reports whether the event belongs to a single auction channel.
func (e *AuctionEvent) Scoped() bool {
	return e.Type != EventAuctionCreated
}

// NewOutcomeEvent converts a processor outcome into its wire event.
func NewOutcomeEvent(outcome BidOutcome, at time.Time) *AuctionEvent {
	req := outcome.Request
	event := &AuctionEvent{
		AuctionID: req.AuctionID,
		UserID:    req.BidderID,
		RequestID: req.ID,
		Timestamp: at,
	}
	if outcome.IsAccepted() {
		amount := outcome.Bid.Amount
		event.Type = EventBidAccepted
		event.Amount = &amount
		return event
	}

	amount := req.Amount
	event.Type = EventBidRejected
	event.Amount = &amount
	event.Reason = outcome.Reason
	if outcome.Minimum.Valid {
		minimum := outcome.Minimum.Decimal
		event.Minimum = &minimum
	}
	return event
}
