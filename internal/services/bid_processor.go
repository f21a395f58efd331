package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"auction-engine/internal/domain"
	"auction-engine/internal/domain/repositories"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"
)

// BidProcessor drains per-auction bid queues. A drain loop runs only while it
// holds the auction's drain lock, so at most one loop per auction commits bids
// at any instant across all instances.
type BidProcessor struct {
	queue           domain.BidQueue
	lock            domain.DrainLock
	auctions        repositories.AuctionRepository
	bids            repositories.BidRepository
	validator       *BidValidator
	snapshots       domain.SnapshotCache
	publisher       domain.EventPublisher
	clock           utils.Clock
	instanceID      string
	conflictRetries int
	log             logger.Logger
	wg              sync.WaitGroup
}

func NewBidProcessor(
	queue domain.BidQueue,
	lock domain.DrainLock,
	auctions repositories.AuctionRepository,
	bids repositories.BidRepository,
	validator *BidValidator,
	snapshots domain.SnapshotCache,
	publisher domain.EventPublisher,
	clock utils.Clock,
	instanceID string,
	conflictRetries int,
	log logger.Logger,
) *BidProcessor {
	return &BidProcessor{
		queue:           queue,
		lock:            lock,
		auctions:        auctions,
		bids:            bids,
		validator:       validator,
		snapshots:       snapshots,
		publisher:       publisher,
		clock:           clock,
		instanceID:      instanceID,
		conflictRetries: conflictRetries,
		log:             log,
	}
}

// Trigger starts a drain for the auction in the background. It returns
// immediately; if another loop already owns the auction the drain is a no-op.
func (p *BidProcessor) Trigger(auctionID string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.Drain(context.Background(), auctionID); err != nil {
			p.log.Error("Drain failed", "auction_id", auctionID, "error", err)
		}
	}()
}

// Wait blocks until every triggered drain has returned.
func (p *BidProcessor) Wait() {
	p.wg.Wait()
}

// Drain processes the auction's queue until it is empty. After releasing the
// lock it checks the queue once more, so a request enqueued between the last
// pop and the release is not stranded.
func (p *BidProcessor) Drain(ctx context.Context, auctionID string) error {
	owner := utils.GenerateID(p.instanceID)

	for {
		acquired, err := p.lock.Acquire(ctx, auctionID, owner)
		if err != nil {
			return fmt.Errorf("acquire drain lock for %s: %w", auctionID, err)
		}
		if !acquired {
			p.log.Debug("Drain already running elsewhere", "auction_id", auctionID)
			return nil
		}

		drainErr := p.drainLocked(ctx, auctionID, owner)

		switch err := p.lock.Release(ctx, auctionID, owner); {
		case errors.Is(err, domain.ErrLockNotHeld):
			p.log.Warn("Drain lock expired before release", "auction_id", auctionID, "owner", owner)
		case err != nil:
			p.log.Error("Failed to release drain lock", "auction_id", auctionID, "error", err)
		}
		if drainErr != nil {
			return drainErr
		}

		pending, err := p.queue.Len(ctx, auctionID)
		if err != nil {
			return err
		}
		if pending == 0 {
			return nil
		}
	}
}

func (p *BidProcessor) drainLocked(ctx context.Context, auctionID, owner string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		held, err := p.lock.Refresh(ctx, auctionID, owner)
		if err != nil {
			return fmt.Errorf("refresh drain lock for %s: %w", auctionID, err)
		}
		if !held {
			p.log.Warn("Drain lock lost", "auction_id", auctionID, "owner", owner)
			return nil
		}

		req, err := p.queue.Dequeue(ctx, auctionID)
		if errors.Is(err, domain.ErrQueueEmpty) {
			return nil
		}
		if errors.Is(err, domain.ErrMalformedRequest) {
			p.log.Error("Dropping malformed bid request", "auction_id", auctionID, "error", err)
			continue
		}
		if err != nil {
			return err
		}

		p.handle(ctx, req)
	}
}

func (p *BidProcessor) handle(ctx context.Context, req *domain.BidRequest) {
	outcome, err := p.Process(ctx, req)
	if err != nil {
		p.log.Error("Dropping bid after infrastructure failure",
			"auction_id", req.AuctionID,
			"bidder_id", req.BidderID,
			"amount", req.Amount.String(),
			"request_id", req.ID,
			"error", err)
		return
	}

	if outcome.IsAccepted() {
		p.log.Info("Bid accepted", "auction_id", req.AuctionID, "bidder_id", req.BidderID, "amount", req.Amount.String())
	} else {
		p.log.Info("Bid rejected", "auction_id", req.AuctionID, "bidder_id", req.BidderID,
			"amount", req.Amount.String(), "reason", outcome.Reason)
	}

	if err := p.publisher.PublishAuctionEvent(ctx, domain.NewOutcomeEvent(outcome, p.clock.Now())); err != nil {
		p.log.Error("Failed to publish bid outcome", "auction_id", req.AuctionID, "request_id", req.ID, "error", err)
	}
}

// Process validates one request and commits it when admissible. A version
// conflict re-reads the auction and re-validates up to conflictRetries times
// before rejecting with concurrent_update. A non-nil error means the outcome
// is unknown and the request is dropped.
func (p *BidProcessor) Process(ctx context.Context, req *domain.BidRequest) (domain.BidOutcome, error) {
	for attempt := 0; ; attempt++ {
		auction, err := p.auctions.GetAuction(ctx, req.AuctionID)
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return domain.Rejected(req, domain.ReasonAuctionNotFound), nil
		}
		if err != nil {
			return domain.BidOutcome{}, fmt.Errorf("load auction %s: %w", req.AuctionID, err)
		}

		rejected, err := p.validator.Validate(ctx, auction, req)
		if err != nil {
			return domain.BidOutcome{}, err
		}
		if rejected != nil {
			return *rejected, nil
		}

		bid := &domain.Bid{
			ID:         utils.GenerateID("bid"),
			AuctionID:  req.AuctionID,
			BidderID:   req.BidderID,
			Amount:     req.Amount,
			AcceptedAt: p.clock.Now(),
		}

		err = p.bids.CommitBid(ctx, bid, auction.Version)
		switch {
		case err == nil:
			auction.CurrentPrice.Decimal = bid.Amount
			auction.CurrentPrice.Valid = true
			auction.LeaderID = bid.BidderID
			auction.Version++
			p.cacheSnapshot(ctx, auction)
			return domain.Accepted(req, bid), nil
		case errors.Is(err, domain.ErrVersionConflict):
			if attempt < p.conflictRetries {
				p.log.Debug("Version conflict, re-validating", "auction_id", req.AuctionID, "request_id", req.ID)
				continue
			}
			return domain.Rejected(req, domain.ReasonConcurrentUpdate), nil
		default:
			return domain.BidOutcome{}, fmt.Errorf("commit bid for %s: %w", req.AuctionID, err)
		}
	}
}

func (p *BidProcessor) cacheSnapshot(ctx context.Context, auction *domain.Auction) {
	if p.snapshots == nil {
		return
	}
	if err := p.snapshots.SetSnapshot(ctx, auction.Snapshot()); err != nil {
		p.log.Warn("Failed to cache auction snapshot", "auction_id", auction.ID, "error", err)
	}
}
