package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
)

// releaseScript deletes the key only if it still holds our token so an expired lock taken over by
// another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker serializing across processes sharing the same Redis.
type Redis struct {
	logger *slog.Logger
	client *redis.Client
}

func NewRedis(logger *slog.Logger, client *redis.Client) *Redis {
	return &Redis{logger: logger, client: client}
}

// TryLock acquires the lock of key for at most ttl. It never blocks.
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	acquired, err := r.client.WithContext(ctx).SetNX(key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %q: %v", key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// the lock has to be released even if ctx is cancelled
		client := r.client.WithContext(context.WithoutCancel(ctx))
		if err := releaseScript.Run(client, []string{key}, token).Err(); err != nil {
			r.logger.ErrorContext(ctx, "Failed to release lock", "key", key, "error", err)
		}
	}
	return release, true, nil
}
