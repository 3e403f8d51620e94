package services

import (
	"context"
	"sync"
	"time"

	"github.com/yoockh/yoointerview/internal/cache"
)

// Latch lets exactly one caller through per key.
type Latch interface {
	Acquire(ctx context.Context, key string) (bool, error)
}

const defaultLatchTTL = 24 * time.Hour

// MemoryLatch remembers taken keys for ttl. Expired keys are swept lazily on
// Acquire, at most once per ttl/4.
type MemoryLatch struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	taken     map[string]time.Time // key -> expiry
	nextSweep time.Time
}

func NewMemoryLatch(ttl time.Duration) *MemoryLatch {
	if ttl <= 0 {
		ttl = defaultLatchTTL
	}
	return &MemoryLatch{ttl: ttl, now: time.Now, taken: map[string]time.Time{}}
}

func (l *MemoryLatch) Acquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		for k, exp := range l.taken {
			if !now.Before(exp) {
				delete(l.taken, k)
			}
		}
		l.nextSweep = now.Add(l.ttl / 4)
	}

	if exp, ok := l.taken[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.taken[key] = now.Add(l.ttl)
	return true, nil
}

// Len reports how many keys are currently held.
func (l *MemoryLatch) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.taken)
}

// RedisLatch extends the in-process latch across replicas with SETNX. When Redis
// is unreachable the local decision stands and the error is returned alongside it.
type RedisLatch struct {
	local   *MemoryLatch
	claimer cache.Claimer
	ttl     time.Duration
}

func NewRedisLatch(claimer cache.Claimer, ttl time.Duration) *RedisLatch {
	if ttl <= 0 {
		ttl = defaultLatchTTL
	}
	return &RedisLatch{local: NewMemoryLatch(ttl), claimer: claimer, ttl: ttl}
}

func (l *RedisLatch) Acquire(ctx context.Context, key string) (bool, error) {
	ok, _ := l.local.Acquire(ctx, key)
	if !ok {
		return false, nil
	}
	claimed, err := l.claimer.Claim(ctx, cache.FinalizedKey(key), l.ttl)
	if err != nil {
		return true, err
	}
	return claimed, nil
}
