package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker guards against concurrent runs of the same newsletter pipeline.
type Locker interface {
	Acquire(ctx context.Context, newsletterID string) (bool, error)
	Release(ctx context.Context, newsletterID string)
}

// MemoryLocker is the single-process fallback when Redis is not configured.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) Acquire(_ context.Context, newsletterID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[newsletterID]; ok {
		return false, nil
	}
	l.held[newsletterID] = struct{}{}
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, newsletterID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, newsletterID)
}

// RedisLocker takes a per-newsletter lock via SET NX with a TTL so a
// crashed process cannot hold a newsletter hostage forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func lockKey(newsletterID string) string {
	return "newsletter:pipeline:lock:" + newsletterID
}

func (l *RedisLocker) Acquire(ctx context.Context, newsletterID string) (bool, error) {
	return l.client.SetNX(ctx, lockKey(newsletterID), "1", l.ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, newsletterID string) {
	l.client.Del(ctx, lockKey(newsletterID))
}
