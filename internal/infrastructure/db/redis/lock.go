package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 5 * time.Second
	lockRetryInitial = 10 * time.Millisecond
	lockRetryMax     = 200 * time.Millisecond
	releaseTimeout   = time.Second
)

// ErrLockNotAcquired is returned when the context ends before the lock is
// free.
var ErrLockNotAcquired = errors.New("redis lock not acquired")

// releaseScript deletes the key only while it still holds our token, so an
// expired holder never frees a lock someone else has taken since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-key mutual exclusion lock shared by every process that
// talks to the same Redis. Key format: <key>, value: a per-acquisition uuid.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewLock returns a Lock on key. The ttl bounds how long a crashed holder can
// keep the lock.
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{client: client, key: key, ttl: ttl}
}

// Lock blocks until the lock is held or ctx ends. The returned function
// releases it.
func (l *Lock) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	wait := lockRetryInitial

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", l.key, err)
		}
		if ok {
			return func() { l.release(token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, l.key, ctx.Err())
		case <-time.After(wait):
		}
		wait = min(wait*2, lockRetryMax)
	}
}

func (l *Lock) release(token string) {
	// The caller's context may already be done; release on a fresh one.
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	_ = releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
}
