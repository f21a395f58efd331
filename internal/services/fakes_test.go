package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"auction-engine/internal/domain"

	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// memStore implements the auction, bid, registration and winner repositories
// over maps guarded by one mutex.
type memStore struct {
	mu            sync.Mutex
	auctions      map[string]*domain.Auction
	bids          map[string][]*domain.Bid
	registrations map[string]domain.RegistrationStatus
	winners       map[string]*domain.AuctionWinner

	// beforeCommit runs inside CommitBid before the version check.
	beforeCommit    func(s *memStore, auctionID string)
	commitFailures  int
	setStatusErrs   map[string]error
	createWinnerErr int
}

func newMemStore() *memStore {
	return &memStore{
		auctions:      make(map[string]*domain.Auction),
		bids:          make(map[string][]*domain.Bid),
		registrations: make(map[string]domain.RegistrationStatus),
		winners:       make(map[string]*domain.AuctionWinner),
		setStatusErrs: make(map[string]error),
	}
}

func regKey(auctionID, userID string) string {
	return auctionID + "/" + userID
}

func copyAuction(a *domain.Auction) *domain.Auction {
	c := *a
	return &c
}

func (s *memStore) put(a *domain.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[a.ID] = copyAuction(a)
}

func (s *memStore) approve(auctionID string, users ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.registrations[regKey(auctionID, u)] = domain.RegistrationApproved
	}
}

func (s *memStore) bidsFor(auctionID string) []*domain.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Bid(nil), s.bids[auctionID]...)
}

func (s *memStore) winnerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.winners)
}

func (s *memStore) CreateAuction(_ context.Context, auction *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[auction.ID] = copyAuction(auction)
	return nil
}

func (s *memStore) GetAuction(_ context.Context, auctionID string) (*domain.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return copyAuction(a), nil
}

func (s *memStore) compareAndSwap(auctionID string, expectedVersion int64, price decimal.Decimal, leader string) error {
	a, ok := s.auctions[auctionID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if a.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	a.CurrentPrice = decimal.NewNullDecimal(price)
	a.LeaderID = leader
	a.Version++
	return nil
}

func (s *memStore) CompareAndSwapPrice(_ context.Context, auctionID string, expectedVersion int64, newPrice decimal.Decimal, newLeader string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compareAndSwap(auctionID, expectedVersion, newPrice, newLeader)
}

func (s *memStore) SetStatus(_ context.Context, auctionID string, from, to domain.AuctionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setStatusErrs[auctionID]; err != nil {
		return err
	}
	a, ok := s.auctions[auctionID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if a.Status != from || !from.CanTransitionTo(to) {
		return domain.ErrInvalidTransition
	}
	a.Status = to
	a.Version++
	return nil
}

func (s *memStore) list(match func(a *domain.Auction) bool) []*domain.Auction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Auction
	for _, a := range s.auctions {
		if match(a) {
			out = append(out, copyAuction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListStartDue(_ context.Context, now time.Time) ([]*domain.Auction, error) {
	return s.list(func(a *domain.Auction) bool {
		return a.Status == domain.AuctionPending && !a.StartTime.After(now)
	}), nil
}

func (s *memStore) ListEndDue(_ context.Context, now time.Time) ([]*domain.Auction, error) {
	return s.list(func(a *domain.Auction) bool {
		return a.Status == domain.AuctionActive && !a.EndTime.After(now)
	}), nil
}

func (s *memStore) ListByStatus(_ context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	return s.list(func(a *domain.Auction) bool { return a.Status == status }), nil
}

func (s *memStore) CommitBid(_ context.Context, bid *domain.Bid, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beforeCommit != nil {
		s.beforeCommit(s, bid.AuctionID)
	}
	if s.commitFailures > 0 {
		s.commitFailures--
		return errors.New("connection reset")
	}
	if err := s.compareAndSwap(bid.AuctionID, expectedVersion, bid.Amount, bid.BidderID); err != nil {
		return err
	}
	b := *bid
	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], &b)
	return nil
}

func (s *memStore) GetBidHistory(_ context.Context, auctionID string) ([]*domain.Bid, error) {
	return s.bidsFor(auctionID), nil
}

func (s *memStore) CreateRegistration(_ context.Context, r *domain.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := regKey(r.AuctionID, r.UserID)
	if _, ok := s.registrations[key]; ok {
		return domain.ErrRegistrationExists
	}
	s.registrations[key] = r.Status
	return nil
}

func (s *memStore) UpdateRegistrationStatus(_ context.Context, auctionID, userID string, status domain.RegistrationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := regKey(auctionID, userID)
	if _, ok := s.registrations[key]; !ok {
		return domain.ErrRegistrationNotFound
	}
	s.registrations[key] = status
	return nil
}

func (s *memStore) GetRegistration(_ context.Context, auctionID, userID string) (*domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.registrations[regKey(auctionID, userID)]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}
	return &domain.Registration{AuctionID: auctionID, UserID: userID, Status: status}, nil
}

func (s *memStore) IsApproved(_ context.Context, auctionID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registrations[regKey(auctionID, userID)] == domain.RegistrationApproved, nil
}

func (s *memStore) CreateWinner(_ context.Context, w *domain.AuctionWinner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createWinnerErr > 0 {
		s.createWinnerErr--
		return errors.New("deadlock found when trying to get lock")
	}
	if _, ok := s.winners[w.AuctionID]; ok {
		return domain.ErrWinnerExists
	}
	c := *w
	s.winners[w.AuctionID] = &c
	return nil
}

func (s *memStore) GetWinner(_ context.Context, auctionID string) (*domain.AuctionWinner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.winners[auctionID]
	if !ok {
		return nil, domain.ErrWinnerNotFound
	}
	c := *w
	return &c, nil
}

type memQueue struct {
	mu    sync.Mutex
	items map[string][]*domain.BidRequest
}

func newMemQueue() *memQueue {
	return &memQueue{items: make(map[string][]*domain.BidRequest)}
}

func (q *memQueue) Enqueue(_ context.Context, req *domain.BidRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[req.AuctionID] = append(q.items[req.AuctionID], req)
	return nil
}

func (q *memQueue) Dequeue(_ context.Context, auctionID string) (*domain.BidRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items[auctionID]
	if len(items) == 0 {
		return nil, domain.ErrQueueEmpty
	}
	q.items[auctionID] = items[1:]
	return items[0], nil
}

func (q *memQueue) Len(_ context.Context, auctionID string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items[auctionID])), nil
}

func (q *memQueue) Backlogged(_ context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var ids []string
	for auctionID, items := range q.items {
		if len(items) > 0 {
			ids = append(ids, auctionID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memLock struct {
	mu       sync.Mutex
	owners   map[string]string
	acquired int
	// onRelease runs after a successful release, outside the lock.
	onRelease func(auctionID string)
}

func newMemLock() *memLock {
	return &memLock{owners: make(map[string]string)}
}

func (l *memLock) Acquire(_ context.Context, auctionID, owner string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.owners[auctionID]; held {
		return false, nil
	}
	l.owners[auctionID] = owner
	l.acquired++
	return true, nil
}

func (l *memLock) Refresh(_ context.Context, auctionID, owner string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owners[auctionID] == owner, nil
}

func (l *memLock) Release(_ context.Context, auctionID, owner string) error {
	l.mu.Lock()
	if l.owners[auctionID] != owner {
		l.mu.Unlock()
		return domain.ErrLockNotHeld
	}
	delete(l.owners, auctionID)
	hook := l.onRelease
	l.mu.Unlock()

	if hook != nil {
		hook(auctionID)
	}
	return nil
}

func (l *memLock) acquisitions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}

type memPublisher struct {
	mu     sync.Mutex
	events []*domain.AuctionEvent
}

func (p *memPublisher) PublishAuctionEvent(_ context.Context, event *domain.AuctionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) ofType(t domain.EventType) []*domain.AuctionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*domain.AuctionEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memSnapshots struct {
	mu        sync.Mutex
	snapshots map[string]*domain.AuctionSnapshot
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{snapshots: make(map[string]*domain.AuctionSnapshot)}
}

func (c *memSnapshots) SetSnapshot(_ context.Context, snapshot *domain.AuctionSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.snapshots[snapshot.AuctionID]; ok && cur.Version > snapshot.Version {
		return nil
	}
	s := *snapshot
	c.snapshots[snapshot.AuctionID] = &s
	return nil
}

func (c *memSnapshots) GetSnapshot(_ context.Context, auctionID string) (*domain.AuctionSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snapshots[auctionID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	cp := *s
	return &cp, nil
}

type fixedRule struct {
	increment decimal.Decimal
}

func (r fixedRule) GetIncrementRule(decimal.Decimal) decimal.Decimal { return r.increment }

func (r fixedRule) LoadRules(context.Context) error { return nil }

type fakeLeader struct {
	mu     sync.Mutex
	holder string
	taken  bool
}

func (l *fakeLeader) BecomeLeader(_ context.Context, instanceID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.taken && l.holder != instanceID {
		return false, nil
	}
	l.holder, l.taken = instanceID, true
	return true, nil
}

func (l *fakeLeader) IsLeader(_ context.Context, instanceID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.taken && l.holder == instanceID, nil
}

func (l *fakeLeader) ReleaseLeadership(_ context.Context, instanceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.taken || l.holder != instanceID {
		return domain.ErrLockNotHeld
	}
	l.taken = false
	return nil
}

type triggerRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *triggerRecorder) Trigger(auctionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, auctionID)
}

// activeAuction is open from baseTime-1h to baseTime+1h with a 100,000 start
// and 10,000 increment.
func activeAuction(id string) *domain.Auction {
	return &domain.Auction{
		ID:            id,
		ItemID:        "item-" + id,
		StartTime:     baseTime.Add(-time.Hour),
		EndTime:       baseTime.Add(time.Hour),
		Status:        domain.AuctionActive,
		StartingPrice: decimal.NewFromInt(100000),
		BidIncrement:  decimal.NewFromInt(10000),
		Version:       1,
	}
}

func amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
