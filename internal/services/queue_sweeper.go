package services

import (
	"context"
	"fmt"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"

	"github.com/robfig/cron/v3"
)

// QueueSweeper periodically triggers a drain for every auction with queued
// requests. It recovers queues left behind by a drain loop whose instance died
// and whose lease has since expired. Auctions that closed in the meantime are
// swept too, so their leftover requests still get a rejection.
type QueueSweeper struct {
	cron     *cron.Cron
	interval string
	queue    domain.BidQueue
	trigger  DrainTrigger
	log      logger.Logger
}

func NewQueueSweeper(interval string, queue domain.BidQueue, trigger DrainTrigger, log logger.Logger) *QueueSweeper {
	return &QueueSweeper{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		interval: interval,
		queue:    queue,
		trigger:  trigger,
		log:      log,
	}
}

func (s *QueueSweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.interval, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule queue sweep %q: %w", s.interval, err)
	}
	s.cron.Start()
	s.log.Info("Queue sweeper started", "interval", s.interval)
	return nil
}

func (s *QueueSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep returns the IDs of the auctions it triggered.
func (s *QueueSweeper) Sweep(ctx context.Context) []string {
	backlogged, err := s.queue.Backlogged(ctx)
	if err != nil {
		s.log.Error("Queue sweep failed to list backlogged queues", "error", err)
		return nil
	}

	for _, auctionID := range backlogged {
		s.trigger.Trigger(auctionID)
	}

	if len(backlogged) > 0 {
		s.log.Info("Queue sweep triggered drains", "auctions", len(backlogged))
	}
	return backlogged
}
