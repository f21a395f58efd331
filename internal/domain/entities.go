package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places money columns store.
const AmountScale = 2

// ValidAmountScale reports whether d fits in AmountScale decimal places
// without rounding. Trailing zeros beyond the scale are allowed.
func ValidAmountScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(AmountScale))
}

type Auction struct {
	ID            string
	ItemID        string
	StartTime     time.Time
	EndTime       time.Time
	Status        AuctionStatus
	StartingPrice decimal.Decimal
	BidIncrement  decimal.Decimal
	CurrentPrice  decimal.NullDecimal
	LeaderID      string
	// Version is bumped on every price/leader or status write and guards
	// compare-and-swap updates.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MinimumNextBid is the lowest amount the next bid may carry: the last accepted
// amount (or the starting price when nobody has bid yet) plus the increment.
func (a *Auction) MinimumNextBid() decimal.Decimal {
	base := a.StartingPrice
	if a.CurrentPrice.Valid {
		base = a.CurrentPrice.Decimal
	}
	return base.Add(a.BidIncrement)
}

func (a *Auction) HasLeader() bool {
	return a.LeaderID != ""
}

// InBiddingWindow reports whether t falls within [StartTime, EndTime].
func (a *Auction) InBiddingWindow(t time.Time) bool {
	return !t.Before(a.StartTime) && !t.After(a.EndTime)
}

func (a *Auction) Snapshot() *AuctionSnapshot {
	return &AuctionSnapshot{
		AuctionID:      a.ID,
		Status:         a.Status,
		CurrentPrice:   a.CurrentPrice,
		LeaderID:       a.LeaderID,
		MinimumNextBid: a.MinimumNextBid(),
		EndTime:        a.EndTime,
		Version:        a.Version,
	}
}

type AuctionStatus int

const (
	AuctionPending AuctionStatus = iota
	AuctionActive
	AuctionClosed
	AuctionCanceled
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionPending:
		return "pending"
	case AuctionActive:
		return "active"
	case AuctionClosed:
		return "closed"
	case AuctionCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

func ParseAuctionStatus(s string) (AuctionStatus, bool) {
	switch s {
	case "pending":
		return AuctionPending, true
	case "active":
		return AuctionActive, true
	case "closed":
		return AuctionClosed, true
	case "canceled":
		return AuctionCanceled, true
	}
	return AuctionPending, false
}

func (s AuctionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AuctionStatus) UnmarshalText(text []byte) error {
	parsed, ok := ParseAuctionStatus(string(text))
	if !ok {
		return ErrUnknownStatus
	}
	*s = parsed
	return nil
}

func (s AuctionStatus) IsTerminal() bool {
	return s == AuctionClosed || s == AuctionCanceled
}

// CanTransitionTo encodes the lifecycle state machine:
// pending -> active -> closed, pending -> canceled, active -> canceled.
func (s AuctionStatus) CanTransitionTo(next AuctionStatus) bool {
	switch s {
	case AuctionPending:
		return next == AuctionActive || next == AuctionCanceled
	case AuctionActive:
		return next == AuctionClosed || next == AuctionCanceled
	default:
		return false
	}
}

type Bid struct {
	ID         string          `json:"id"`
	AuctionID  string          `json:"auction_id"`
	BidderID   string          `json:"bidder_id"`
	Amount     decimal.Decimal `json:"amount"`
	AcceptedAt time.Time       `json:"accepted_at"`
}

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

type Registration struct {
	AuctionID string             `json:"auction_id"`
	UserID    string             `json:"user_id"`
	Status    RegistrationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type AuctionWinner struct {
	AuctionID string          `json:"auction_id"`
	WinnerID  string          `json:"winner_id"`
	Amount    decimal.Decimal `json:"amount"`
	DecidedAt time.Time       `json:"decided_at"`
}

// BidRequest is the queued, not yet validated form of a bid.
type BidRequest struct {
	ID         string          `json:"id"`
	AuctionID  string          `json:"auction_id"`
	BidderID   string          `json:"bidder_id"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedAt time.Time       `json:"received_at"`
}

// AuctionSnapshot is what a newly joined observer sees.
type AuctionSnapshot struct {
	AuctionID      string              `json:"auction_id"`
	Status         AuctionStatus       `json:"status"`
	CurrentPrice   decimal.NullDecimal `json:"current_price"`
	LeaderID       string              `json:"leader_id,omitempty"`
	MinimumNextBid decimal.Decimal     `json:"minimum_next_bid"`
	EndTime        time.Time           `json:"end_time"`
	Version        int64               `json:"version"`
}

type IncrementRules struct {
	// Rules maps a price band ("0-100", "100-500", "500+") to its increment.
	Rules map[string]decimal.Decimal `json:"rules"`
}
