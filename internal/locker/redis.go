package locker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the lock could not be acquired before the
// context expired.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// releaseScript deletes the key only if it still holds our token, so an
// expired lock reacquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by a Redis SET NX lease. It is used when several
// server instances share one appointment store; a single instance can use the
// in-process Keyed locker instead.
type Redis struct {
	rdb       *redis.Client
	ttl       time.Duration
	retryWait time.Duration
	prefix    string
}

// NewRedis creates a Redis-backed locker. ttl bounds how long a crashed
// holder can block others.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		rdb:       rdb,
		ttl:       ttl,
		retryWait: 50 * time.Millisecond,
		prefix:    "booklock:",
	}
}

// Lock polls SET NX until the lease is acquired or ctx ends.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := r.prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.rdb.SetNX(ctx, fullKey, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(r.retryWait):
		}
	}

	release := func() {
		// Best effort: the TTL cleans up if the release itself fails.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = releaseScript.Run(releaseCtx, r.rdb, []string{fullKey}, token).Result()
	}
	return release, nil
}
