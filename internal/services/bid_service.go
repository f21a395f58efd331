package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/domain/repositories"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// DrainTrigger starts (or nudges) the drain loop of an auction.
type DrainTrigger interface {
	Trigger(auctionID string)
}

// BidAck is returned to the submitter as soon as a bid is queued. The accept or
// reject decision arrives later over the realtime channel.
type BidAck struct {
	RequestID  string    `json:"request_id"`
	AuctionID  string    `json:"auction_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

type BidService struct {
	queue   domain.BidQueue
	trigger DrainTrigger
	bids    repositories.BidRepository
	clock   utils.Clock
	log     logger.Logger
}

func NewBidService(
	queue domain.BidQueue,
	trigger DrainTrigger,
	bids repositories.BidRepository,
	clock utils.Clock,
	log logger.Logger,
) *BidService {
	return &BidService{
		queue:   queue,
		trigger: trigger,
		bids:    bids,
		clock:   clock,
		log:     log,
	}
}

// SubmitBid queues the bid and triggers the auction's drain loop. Only the
// request shape is checked here; admission rules run in the processor.
func (s *BidService) SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*BidAck, error) {
	auctionID = strings.TrimSpace(auctionID)
	bidderID = strings.TrimSpace(bidderID)
	if auctionID == "" || bidderID == "" {
		return nil, fmt.Errorf("%w: auction and bidder are required", domain.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidBid)
	}
	if !domain.ValidAmountScale(amount) {
		return nil, fmt.Errorf("%w: amount has more than %d decimal places", domain.ErrInvalidBid, domain.AmountScale)
	}

	req := &domain.BidRequest{
		ID:         utils.GenerateID("bidreq"),
		AuctionID:  auctionID,
		BidderID:   bidderID,
		Amount:     amount,
		ReceivedAt: s.clock.Now(),
	}

	if err := s.queue.Enqueue(ctx, req); err != nil {
		s.log.Error("Failed to enqueue bid", "auction_id", auctionID, "bidder_id", bidderID, "error", err)
		return nil, err
	}

	s.log.Debug("Bid queued", "auction_id", auctionID, "bidder_id", bidderID, "request_id", req.ID)
	s.trigger.Trigger(auctionID)

	return &BidAck{
		RequestID:  req.ID,
		AuctionID:  auctionID,
		Status:     "received",
		Message:    "processing",
		ReceivedAt: req.ReceivedAt,
	}, nil
}

func (s *BidService) GetBidHistory(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	return s.bids.GetBidHistory(ctx, auctionID)
}
