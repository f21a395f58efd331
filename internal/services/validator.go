package services

import (
	"context"
	"fmt"

	"auction-engine/internal/domain"
	"auction-engine/internal/domain/repositories"
	"auction-engine/pkg/utils"
)

// BidValidator applies the admission rules to a queued request against the
// auction state it was loaded with. Checks run in a fixed order and stop at the
// first failure.
type BidValidator struct {
	registrations repositories.RegistrationRepository
	clock         utils.Clock
}

func NewBidValidator(registrations repositories.RegistrationRepository, clock utils.Clock) *BidValidator {
	return &BidValidator{
		registrations: registrations,
		clock:         clock,
	}
}

// Validate returns a rejection outcome, or nil when req may be committed. The
// error is reserved for failures reading the registration store.
func (v *BidValidator) Validate(ctx context.Context, auction *domain.Auction, req *domain.BidRequest) (*domain.BidOutcome, error) {
	if auction.Status != domain.AuctionActive {
		return rejection(domain.Rejected(req, domain.ReasonAuctionNotActive)), nil
	}

	if !auction.InBiddingWindow(v.clock.Now()) {
		return rejection(domain.Rejected(req, domain.ReasonOutsideTimeWindow)), nil
	}

	approved, err := v.registrations.IsApproved(ctx, auction.ID, req.BidderID)
	if err != nil {
		return nil, fmt.Errorf("check registration of %s: %w", req.BidderID, err)
	}
	if !approved {
		return rejection(domain.Rejected(req, domain.ReasonBidderNotRegistered)), nil
	}

	if minimum := auction.MinimumNextBid(); req.Amount.LessThan(minimum) {
		return rejection(domain.RejectedBelowMinimum(req, minimum)), nil
	}

	return nil, nil
}

func rejection(outcome domain.BidOutcome) *domain.BidOutcome {
	return &outcome
}
