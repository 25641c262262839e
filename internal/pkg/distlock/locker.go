package distlock

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/shipment-importer/internal/pkg/logger"
)

// Locker hands out short-lived locks by key. It satisfies the import
// service's need to serialize work per sender across server instances.
type Locker struct {
	redis *redis.Client
	db    *sql.DB
	ttl   time.Duration
}

// NewLocker creates a Locker on the best available backend, following the
// same preference as NewLock.
func NewLocker(redisClient *redis.Client, db *sql.DB, ttl time.Duration) *Locker {
	return &Locker{redis: redisClient, db: db, ttl: ttl}
}

// TryLock acquires key without waiting. The returned release func is a
// no-op when ok is false. Redis locks are extended every ttl/2 until
// released, so work longer than the ttl keeps its lock.
func (l *Locker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	lock := NewLock(l.redis, l.db, key, l.ttl)
	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		return func() {}, false, err
	}

	stop := make(chan struct{})
	if rl, isRedis := lock.(*RedisLock); isRedis && l.ttl > 0 {
		go keepAlive(rl, l.ttl, stop)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			// The caller's context may already be done.
			relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := lock.Release(relCtx); err != nil {
				logger.Warn("distlock: release failed", "key", key, "error", err)
			}
		})
	}, true, nil
}

func keepAlive(rl *RedisLock, ttl time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := rl.Extend(ctx, ttl); err != nil {
				logger.Warn("distlock: extend failed", "key", rl.key, "error", err)
			}
			cancel()
		}
	}
}
