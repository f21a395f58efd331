package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks auction-engine/internal/domain BidQueue,DrainLock,EventPublisher

// Queue interfaces
type BidQueue interface {
	Enqueue(ctx context.Context, req *BidRequest) error
	// Dequeue pops the oldest request for the auction, or returns ErrQueueEmpty.
	Dequeue(ctx context.Context, auctionID string) (*BidRequest, error)
	Len(ctx context.Context, auctionID string) (int64, error)
	// Backlogged lists the auctions with at least one queued request,
	// whatever their status.
	Backlogged(ctx context.Context) ([]string, error)
}

// DrainLock is a lease keyed by auction ID. Only the owner that acquired it may
// refresh or release it; an unreleased lease expires on its own. Release
// returns ErrLockNotHeld when the lease is no longer owner's.
type DrainLock interface {
	Acquire(ctx context.Context, auctionID, owner string) (bool, error)
	Refresh(ctx context.Context, auctionID, owner string) (bool, error)
	Release(ctx context.Context, auctionID, owner string) error
}

// Cache interfaces
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, snapshot *AuctionSnapshot) error
	GetSnapshot(ctx context.Context, auctionID string) (*AuctionSnapshot, error)
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// Notification interfaces
type UserNotifier interface {
	NotifyUser(ctx context.Context, auctionID, userID string, message interface{}) error
}

type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error
	BroadcastToAll(ctx context.Context, message interface{}) error
}

// Increment rules
type BiddingRule interface {
	GetIncrementRule(amount decimal.Decimal) decimal.Decimal
	LoadRules(ctx context.Context) error
}

// LeaderElection elects the single scheduler instance. ReleaseLeadership
// returns ErrLockNotHeld when instanceID is not the current holder.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// Scheduler interface
type AuctionScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	Tick(ctx context.Context) TickReport
}

// TickReport summarizes one lifecycle tick.
type TickReport struct {
	At       time.Time
	Started  []string
	Closed   []string
	Winners  []string
	Failures map[string]error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	AuctionID() string
}

type ConnectionManager interface {
	RegisterConnection(userID, auctionID string, conn WebSocketConnection) error
	UnregisterConnection(userID, auctionID string, conn WebSocketConnection) error
	GetConnectionsForAuction(auctionID string) []WebSocketConnection
	GetConnectionsForUser(userID string) []WebSocketConnection
	BroadcastToAuction(auctionID string, message interface{}) error
	BroadcastToAll(message interface{}) error
	NotifyUserInAuction(auctionID, userID string, message interface{}) error
	CloseAndUnregisterConnections(auctionID string) error
}
