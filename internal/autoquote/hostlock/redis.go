package hostlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockRetry = 25 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a SET NX PX lock per host. The TTL bounds how long a crashed
// holder can block the host.
type Redis struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
}

// NewRedis constructs a distributed locker.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Redis{rdb: rdb, ttl: ttl, retry: defaultLockRetry}
}

func redisKey(hostID int64) string {
	return fmt.Sprintf("autoquote:host:%d:lock", hostID)
}

func (l *Redis) Lock(ctx context.Context, hostID int64) (func(), error) {
	key := redisKey(hostID)
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("hostlock: acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return sync.OnceFunc(func() {
		// the caller context may already be cancelled at release time
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(relCtx, l.rdb, []string{key}, token).Err()
	}), nil
}
