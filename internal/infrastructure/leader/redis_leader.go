package leader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-engine/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// LeaderKey is the lease every scheduler instance competes for.
const LeaderKey = "auction_leader"

// RedisLeaderElection is a single Redis lease. The holder keeps it alive with
// a heartbeat every third of the TTL; a failed heartbeat round is retried on
// the next tick, a lease found in other hands stops the heartbeat.
type RedisLeaderElection struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	log    logger.Logger

	mu         sync.Mutex
	heartbeats map[string]*heartbeat
}

type heartbeat struct {
	cancel context.CancelFunc
}

func NewRedisLeaderElection(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisLeaderElection {
	return &RedisLeaderElection{
		client:     client,
		key:        LeaderKey,
		ttl:        ttl,
		log:        log,
		heartbeats: make(map[string]*heartbeat),
	}
}

func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	claimed, err := r.client.SetNX(ctx, r.key, instanceID, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim leadership for %s: %w", instanceID, err)
	}
	if claimed {
		r.startHeartbeat(instanceID)
	}
	return claimed, nil
}

// Leader returns the current holder, or "" when nobody holds the lease.
func (r *RedisLeaderElection) Leader(ctx context.Context) (string, error) {
	holder, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read leader: %w", err)
	}
	return holder, nil
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	holder, err := r.Leader(ctx)
	if err != nil {
		return false, err
	}
	return holder == instanceID, nil
}

// ReleaseLeadership stops the heartbeat and frees the lease. It returns
// domain.ErrLockNotHeld when instanceID was not the holder.
func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	r.mu.Lock()
	if hb, ok := r.heartbeats[instanceID]; ok {
		hb.cancel()
		delete(r.heartbeats, instanceID)
	}
	r.mu.Unlock()

	return releaseLease(ctx, r.client, r.key, instanceID)
}

func (r *RedisLeaderElection) startHeartbeat(instanceID string) {
	ctx, cancel := context.WithCancel(context.Background())
	hb := &heartbeat{cancel: cancel}

	r.mu.Lock()
	if previous, ok := r.heartbeats[instanceID]; ok {
		previous.cancel()
	}
	r.heartbeats[instanceID] = hb
	r.mu.Unlock()

	go r.keepAlive(ctx, instanceID, hb)
}

func (r *RedisLeaderElection) keepAlive(ctx context.Context, instanceID string, hb *heartbeat) {
	interval := r.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		callCtx, cancel := context.WithTimeout(ctx, interval)
		held, err := extendLease(callCtx, r.client, r.key, instanceID, r.ttl)
		cancel()

		if err != nil {
			r.log.Warn("Leadership heartbeat failed", "instance_id", instanceID, "error", err)
			continue
		}
		if !held {
			r.log.Warn("Scheduler leadership lost", "instance_id", instanceID)
			r.mu.Lock()
			if r.heartbeats[instanceID] == hb {
				delete(r.heartbeats, instanceID)
			}
			r.mu.Unlock()
			hb.cancel()
			return
		}
	}
}

func (r *RedisLeaderElection) heartbeating(instanceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.heartbeats[instanceID]
	return ok
}
