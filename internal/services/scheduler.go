package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/internal/domain/repositories"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"

	"github.com/robfig/cron/v3"
)

// CronAuctionScheduler runs the lifecycle tick on a cron schedule. Only the
// instance holding scheduler leadership ticks; others skip the period.
type CronAuctionScheduler struct {
	cron           *cron.Cron
	interval       string
	auctions       repositories.AuctionRepository
	winners        repositories.WinnerRepository
	snapshots      domain.SnapshotCache
	eventPub       domain.EventPublisher
	leaderElection domain.LeaderElection
	instanceID     string
	clock          utils.Clock
	log            logger.Logger

	// unsettled holds auctions closed by an earlier tick whose winner could not
	// be settled; they are retried on the next tick.
	mu        sync.Mutex
	unsettled map[string]struct{}
}

func NewCronAuctionScheduler(
	interval string,
	auctions repositories.AuctionRepository,
	winners repositories.WinnerRepository,
	snapshots domain.SnapshotCache,
	eventPub domain.EventPublisher,
	leaderElection domain.LeaderElection,
	instanceID string,
	clock utils.Clock,
	log logger.Logger,
) *CronAuctionScheduler {
	return &CronAuctionScheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		interval:       interval,
		auctions:       auctions,
		winners:        winners,
		snapshots:      snapshots,
		eventPub:       eventPub,
		leaderElection: leaderElection,
		instanceID:     instanceID,
		clock:          clock,
		log:            log,
		unsettled:      make(map[string]struct{}),
	}
}

func (s *CronAuctionScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting auction scheduler", "interval", s.interval)

	_, err := s.cron.AddFunc(s.interval, func() {
		s.runTick(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule lifecycle tick %q: %w", s.interval, err)
	}

	s.cron.Start()
	return nil
}

func (s *CronAuctionScheduler) Stop() error {
	s.log.Info("Stopping auction scheduler")
	<-s.cron.Stop().Done()
	return nil
}

func (s *CronAuctionScheduler) runTick(ctx context.Context) {
	leader, err := s.holdLeadership(ctx)
	if err != nil {
		s.log.Error("Leadership check failed, skipping tick", "error", err)
		return
	}
	if !leader {
		s.log.Debug("Not the scheduler leader, skipping tick", "instance_id", s.instanceID)
		return
	}

	report := s.Tick(ctx)
	if len(report.Failures) > 0 {
		s.log.Warn("Lifecycle tick finished with failures",
			"started", len(report.Started), "closed", len(report.Closed),
			"winners", len(report.Winners), "failures", len(report.Failures))
		return
	}
	s.log.Info("Lifecycle tick finished",
		"started", len(report.Started), "closed", len(report.Closed), "winners", len(report.Winners))
}

func (s *CronAuctionScheduler) holdLeadership(ctx context.Context) (bool, error) {
	if s.leaderElection == nil {
		return true, nil
	}
	isLeader, err := s.leaderElection.IsLeader(ctx, s.instanceID)
	if err != nil || isLeader {
		return isLeader, err
	}

	became, err := s.leaderElection.BecomeLeader(ctx, s.instanceID)
	if err != nil || !became {
		return false, err
	}
	s.log.Info("Acquired scheduler leadership", "instance_id", s.instanceID)
	s.recoverUnsettled(ctx)
	return true, nil
}

// recoverUnsettled picks up closed auctions whose winner was never recorded,
// e.g. because the previous leader stopped between closing and settling.
func (s *CronAuctionScheduler) recoverUnsettled(ctx context.Context) {
	closed, err := s.auctions.ListByStatus(ctx, domain.AuctionClosed)
	if err != nil {
		s.log.Error("Failed to list closed auctions", "error", err)
		return
	}
	for _, auction := range closed {
		if !auction.HasLeader() {
			continue
		}
		_, err := s.winners.GetWinner(ctx, auction.ID)
		if errors.Is(err, domain.ErrWinnerNotFound) {
			s.markUnsettled(auction.ID)
		}
	}
}

// Tick performs one lifecycle pass at the clock's current time: due pending
// auctions start, due active auctions close, and every auction closed with a
// leader gets exactly one winner record. A failure on one auction is recorded
// in the report and does not stop the others.
func (s *CronAuctionScheduler) Tick(ctx context.Context) domain.TickReport {
	now := s.clock.Now()
	report := domain.TickReport{At: now, Failures: make(map[string]error)}

	starting, err := s.auctions.ListStartDue(ctx, now)
	if err != nil {
		s.log.Error("Failed to list auctions due to start", "error", err)
	}
	for _, auction := range starting {
		if err := s.startAuction(ctx, auction); err != nil {
			report.Failures[auction.ID] = err
			continue
		}
		report.Started = append(report.Started, auction.ID)
	}

	ending, err := s.auctions.ListEndDue(ctx, now)
	if err != nil {
		s.log.Error("Failed to list auctions due to close", "error", err)
	}
	for _, auction := range ending {
		err := s.auctions.SetStatus(ctx, auction.ID, domain.AuctionActive, domain.AuctionClosed)
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Canceled or closed by someone else since listing.
			continue
		}
		if err != nil {
			s.log.Error("Failed to close auction", "auction_id", auction.ID, "error", err)
			report.Failures[auction.ID] = err
			continue
		}
		report.Closed = append(report.Closed, auction.ID)
		s.markUnsettled(auction.ID)
	}

	for _, auctionID := range s.pendingSettlement() {
		winnerID, err := s.settle(ctx, auctionID, now)
		if err != nil {
			s.log.Error("Failed to settle auction", "auction_id", auctionID, "error", err)
			report.Failures[auctionID] = err
			continue
		}
		s.markSettled(auctionID)
		if winnerID != "" {
			report.Winners = append(report.Winners, winnerID)
		}
	}

	return report
}

func (s *CronAuctionScheduler) startAuction(ctx context.Context, auction *domain.Auction) error {
	err := s.auctions.SetStatus(ctx, auction.ID, domain.AuctionPending, domain.AuctionActive)
	if err != nil {
		s.log.Error("Failed to start auction", "auction_id", auction.ID, "error", err)
		return err
	}

	auction.Status = domain.AuctionActive
	auction.Version++
	s.cacheSnapshot(ctx, auction)

	startTime, endTime := auction.StartTime, auction.EndTime
	s.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionStarted,
		AuctionID: auction.ID,
		ItemID:    auction.ItemID,
		StartTime: &startTime,
		EndTime:   &endTime,
		Timestamp: s.clock.Now(),
	})

	s.log.Info("Auction started", "auction_id", auction.ID)
	return nil
}

// settle records the winner of a closed auction, if it has a leader and no
// winner yet, and announces the close. It returns the winner's user ID when a
// winner exists.
func (s *CronAuctionScheduler) settle(ctx context.Context, auctionID string, now time.Time) (string, error) {
	// Re-read after closing: a bid committed just before the close moved the leader.
	auction, err := s.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return "", err
	}
	s.cacheSnapshot(ctx, auction)

	closed := &domain.AuctionEvent{
		Type:      domain.EventAuctionClosed,
		AuctionID: auctionID,
		Timestamp: now,
	}

	if !auction.HasLeader() {
		s.publish(ctx, closed)
		s.log.Info("Auction closed without bids", "auction_id", auctionID)
		return "", nil
	}

	amount := auction.CurrentPrice.Decimal
	closed.UserID = auction.LeaderID
	closed.Amount = &amount

	created, err := s.recordWinner(ctx, auction, now)
	if err != nil {
		return "", err
	}

	if created {
		s.publish(ctx, &domain.AuctionEvent{
			Type:      domain.EventAuctionWon,
			AuctionID: auctionID,
			UserID:    auction.LeaderID,
			Amount:    &amount,
			Timestamp: now,
		})
	}
	s.publish(ctx, closed)

	s.log.Info("Auction closed", "auction_id", auctionID, "winner_id", auction.LeaderID, "amount", amount.String())
	return auction.LeaderID, nil
}

func (s *CronAuctionScheduler) recordWinner(ctx context.Context, auction *domain.Auction, now time.Time) (bool, error) {
	_, err := s.winners.GetWinner(ctx, auction.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrWinnerNotFound) {
		return false, err
	}

	err = s.winners.CreateWinner(ctx, &domain.AuctionWinner{
		AuctionID: auction.ID,
		WinnerID:  auction.LeaderID,
		Amount:    auction.CurrentPrice.Decimal,
		DecidedAt: now,
	})
	if errors.Is(err, domain.ErrWinnerExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CronAuctionScheduler) markUnsettled(auctionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsettled[auctionID] = struct{}{}
}

func (s *CronAuctionScheduler) markSettled(auctionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unsettled, auctionID)
}

func (s *CronAuctionScheduler) pendingSettlement() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.unsettled))
	for id := range s.unsettled {
		ids = append(ids, id)
	}
	return ids
}

func (s *CronAuctionScheduler) cacheSnapshot(ctx context.Context, auction *domain.Auction) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.SetSnapshot(ctx, auction.Snapshot()); err != nil {
		s.log.Warn("Failed to cache auction snapshot", "auction_id", auction.ID, "error", err)
	}
}

func (s *CronAuctionScheduler) publish(ctx context.Context, event *domain.AuctionEvent) {
	if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish event", "type", event.Type, "auction_id", event.AuctionID, "error", err)
	}
}
