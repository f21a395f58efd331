package leader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/domain"

	"github.com/go-redis/redis/v8"
)

var releaseScript = redis.NewScript(`
    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("DEL", KEYS[1])
    else
        return 0
    end
`)

var extendScript = redis.NewScript(`
    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("PEXPIRE", KEYS[1], ARGV[2])
    else
        return 0
    end
`)

// RedisLock is a TTL lease per key. A holder that dies without releasing
// simply lets the lease expire.
type RedisLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, prefix string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (l *RedisLock) key(name string) string {
	return fmt.Sprintf("%s:%s:drain_lock", l.prefix, name)
}

func (l *RedisLock) Acquire(ctx context.Context, name, owner string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(name), owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

func (l *RedisLock) Refresh(ctx context.Context, name, owner string) (bool, error) {
	return extendLease(ctx, l.client, l.key(name), owner, l.ttl)
}

func (l *RedisLock) Release(ctx context.Context, name, owner string) error {
	return releaseLease(ctx, l.client, l.key(name), owner)
}

func extendLease(ctx context.Context, client *redis.Client, key, owner string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, client, []string{key}, owner, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("extend lease %s: %w", key, err)
	}
	return n == 1, nil
}

// releaseLease deletes key only while owner still holds it. It returns
// domain.ErrLockNotHeld when the lease expired or passed to someone else.
func releaseLease(ctx context.Context, client *redis.Client, key, owner string) error {
	n, err := releaseScript.Run(ctx, client, []string{key}, owner).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lease %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("release lease %s: %w", key, domain.ErrLockNotHeld)
	}
	return nil
}
