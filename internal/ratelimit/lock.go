package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	redis "github.com/redis/go-redis/v9"
)

const lockNamespace = "cloudstage:lock:"

// compare-and-delete so an expired holder cannot drop a newer lease.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var (
	ErrInvalidLock = errors.New("invalid_lock_request")
	ErrLockLost    = errors.New("lock_lost")
)

// Locker hands out single-holder leases keyed by name. The owner token
// returned by TryLock must be passed back to Release.
type Locker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrNotConfigured
	}
	name, err := lockKey(key)
	if err != nil {
		return "", false, err
	}
	if ttl <= 0 {
		return "", false, ErrInvalidLock
	}

	owner := ulid.Make().String()
	acquired, err := l.client.SetNX(ctx, name, owner, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !acquired {
		return "", false, nil
	}
	return owner, true, nil
}

// Release returns ErrLockLost when the lease expired or changed hands
// before the caller finished.
func (l *Locker) Release(ctx context.Context, key, owner string) error {
	if l == nil || l.client == nil || owner == "" {
		return nil
	}
	name, err := lockKey(key)
	if err != nil {
		return err
	}
	deleted, err := releaseScript.Run(ctx, l.client, []string{name}, owner).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockLost
	}
	return nil
}

func lockKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidLock
	}
	return lockNamespace + key, nil
}
