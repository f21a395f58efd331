package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/domain/repositories"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

type CreateAuctionRequest struct {
	ItemID        string
	StartTime     time.Time
	EndTime       time.Time
	StartingPrice decimal.Decimal
	// BidIncrement falls back to the tiered increment rules when zero.
	BidIncrement decimal.Decimal
}

// AuctionManager owns the operator-facing side of auctions: creation,
// cancellation, registrations and read models.
type AuctionManager struct {
	auctions      repositories.AuctionRepository
	registrations repositories.RegistrationRepository
	winners       repositories.WinnerRepository
	snapshots     domain.SnapshotCache
	eventPub      domain.EventPublisher
	rules         domain.BiddingRule
	clock         utils.Clock
	autoApprove   bool
	log           logger.Logger
}

func NewAuctionManager(
	auctions repositories.AuctionRepository,
	registrations repositories.RegistrationRepository,
	winners repositories.WinnerRepository,
	snapshots domain.SnapshotCache,
	eventPub domain.EventPublisher,
	rules domain.BiddingRule,
	clock utils.Clock,
	autoApprove bool,
	log logger.Logger,
) *AuctionManager {
	return &AuctionManager{
		auctions:      auctions,
		registrations: registrations,
		winners:       winners,
		snapshots:     snapshots,
		eventPub:      eventPub,
		rules:         rules,
		clock:         clock,
		autoApprove:   autoApprove,
		log:           log,
	}
}

func (am *AuctionManager) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*domain.Auction, error) {
	if strings.TrimSpace(req.ItemID) == "" {
		return nil, fmt.Errorf("%w: item_id is required", domain.ErrInvalidAuction)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("%w: end_time must be after start_time", domain.ErrInvalidAuction)
	}
	if !req.StartingPrice.IsPositive() {
		return nil, fmt.Errorf("%w: starting_price must be positive", domain.ErrInvalidAuction)
	}
	if req.BidIncrement.IsNegative() {
		return nil, fmt.Errorf("%w: bid_increment must not be negative", domain.ErrInvalidAuction)
	}
	if !domain.ValidAmountScale(req.StartingPrice) || !domain.ValidAmountScale(req.BidIncrement) {
		return nil, fmt.Errorf("%w: prices have more than %d decimal places", domain.ErrInvalidAuction, domain.AmountScale)
	}

	increment := req.BidIncrement
	if increment.IsZero() {
		increment = am.rules.GetIncrementRule(req.StartingPrice)
	}

	now := am.clock.Now()
	auction := &domain.Auction{
		ID:            utils.GenerateID("auction"),
		ItemID:        req.ItemID,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.EndTime.UTC(),
		Status:        domain.AuctionPending,
		StartingPrice: req.StartingPrice,
		BidIncrement:  increment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := am.auctions.CreateAuction(ctx, auction); err != nil {
		return nil, err
	}

	am.cacheSnapshot(ctx, auction)

	startTime, endTime := auction.StartTime, auction.EndTime
	amount := auction.StartingPrice
	am.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionCreated,
		AuctionID: auction.ID,
		ItemID:    auction.ItemID,
		Amount:    &amount,
		StartTime: &startTime,
		EndTime:   &endTime,
		Timestamp: now,
	})

	am.log.Info("Auction created", "auction_id", auction.ID, "item_id", auction.ItemID,
		"starting_price", auction.StartingPrice.String(), "increment", increment.String())
	return auction, nil
}

func (am *AuctionManager) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return am.auctions.GetAuction(ctx, auctionID)
}

// CancelAuction is the operator override of the lifecycle. A pending auction
// can always be canceled; an active one only before its end time.
func (am *AuctionManager) CancelAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	auction, err := am.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	now := am.clock.Now()
	switch auction.Status {
	case domain.AuctionPending:
	case domain.AuctionActive:
		if !now.Before(auction.EndTime) {
			return nil, fmt.Errorf("%w: auction %s has already ended", domain.ErrInvalidTransition, auctionID)
		}
	default:
		return nil, fmt.Errorf("%w: auction %s is %s", domain.ErrInvalidTransition, auctionID, auction.Status)
	}

	if err := am.auctions.SetStatus(ctx, auctionID, auction.Status, domain.AuctionCanceled); err != nil {
		return nil, err
	}

	canceled, err := am.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	am.cacheSnapshot(ctx, canceled)

	am.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionCanceled,
		AuctionID: auctionID,
		Timestamp: now,
	})

	am.log.Info("Auction canceled", "auction_id", auctionID, "previous_status", auction.Status)
	return canceled, nil
}

// RegisterBidder records the user's registration for the auction. It is
// approved immediately when auto-approval is configured.
func (am *AuctionManager) RegisterBidder(ctx context.Context, auctionID, userID string) (*domain.Registration, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidBid)
	}
	if _, err := am.auctions.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}

	status := domain.RegistrationPending
	if am.autoApprove {
		status = domain.RegistrationApproved
	}

	now := am.clock.Now()
	registration := &domain.Registration{
		AuctionID: auctionID,
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := am.registrations.CreateRegistration(ctx, registration); err != nil {
		return nil, err
	}

	am.log.Info("Bidder registered", "auction_id", auctionID, "user_id", userID, "status", status)
	return registration, nil
}

func (am *AuctionManager) ApproveRegistration(ctx context.Context, auctionID, userID string) (*domain.Registration, error) {
	return am.decideRegistration(ctx, auctionID, userID, domain.RegistrationApproved)
}

func (am *AuctionManager) RejectRegistration(ctx context.Context, auctionID, userID string) (*domain.Registration, error) {
	return am.decideRegistration(ctx, auctionID, userID, domain.RegistrationRejected)
}

func (am *AuctionManager) decideRegistration(ctx context.Context, auctionID, userID string, status domain.RegistrationStatus) (*domain.Registration, error) {
	if err := am.registrations.UpdateRegistrationStatus(ctx, auctionID, userID, status); err != nil {
		return nil, err
	}
	am.log.Info("Registration updated", "auction_id", auctionID, "user_id", userID, "status", status)
	return am.registrations.GetRegistration(ctx, auctionID, userID)
}

// Snapshot returns the join-time view of an auction, preferring the cache and
// falling back to the auction store.
func (am *AuctionManager) Snapshot(ctx context.Context, auctionID string) (*domain.AuctionSnapshot, error) {
	if am.snapshots != nil {
		snapshot, err := am.snapshots.GetSnapshot(ctx, auctionID)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			am.log.Warn("Snapshot cache read failed", "auction_id", auctionID, "error", err)
		}
	}

	auction, err := am.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	am.cacheSnapshot(ctx, auction)
	return auction.Snapshot(), nil
}

func (am *AuctionManager) GetWinner(ctx context.Context, auctionID string) (*domain.AuctionWinner, error) {
	return am.winners.GetWinner(ctx, auctionID)
}

func (am *AuctionManager) cacheSnapshot(ctx context.Context, auction *domain.Auction) {
	if am.snapshots == nil {
		return
	}
	if err := am.snapshots.SetSnapshot(ctx, auction.Snapshot()); err != nil {
		am.log.Warn("Failed to cache auction snapshot", "auction_id", auction.ID, "error", err)
	}
}

func (am *AuctionManager) publish(ctx context.Context, event *domain.AuctionEvent) {
	if err := am.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		am.log.Error("Failed to publish event", "type", event.Type, "auction_id", event.AuctionID, "error", err)
	}
}
