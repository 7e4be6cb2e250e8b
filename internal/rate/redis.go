package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rw:"

// allowScript applies evict + count + append atomically on the Redis side.
// Returns {admitted, count, oldestScoreMillis}.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
if count >= max then
  local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
  return {0, count, tonumber(oldest[2])}
end
redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
return {1, count + 1, tonumber(oldest[2])}
`)

// RedisLimiter is the sliding window backed by a shared Redis sorted set,
// for deployments with more than one instance.
type RedisLimiter struct {
	redis  redis.UniversalClient
	config Config
	now    func() time.Time
}

// NewRedisLimiter creates a [RedisLimiter] over the given client.
func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		redis:  client,
		config: cfg.withDefaults(),
		now:    time.Now,
	}
}

// Allow applies the sliding-window check for clientID.
func (l *RedisLimiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	now := l.now()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	res, err := allowScript.Run(ctx, l.redis,
		[]string{redisKeyPrefix + clientID},
		now.UnixMilli(),
		l.config.Window.Milliseconds(),
		l.config.MaxRequests,
		member,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply", ErrRedisUnavailable)
	}

	admitted := res[0] == 1
	count := int(res[1])
	resetAt := time.UnixMilli(res[2]).Add(l.config.Window)

	d := Decision{
		Allowed:   admitted,
		Limit:     l.config.MaxRequests,
		Remaining: l.config.MaxRequests - count,
		ResetAt:   resetAt,
	}
	if !admitted {
		d.Remaining = 0
		d.RetryAfter = resetAt.Sub(now)
	}
	return d, nil
}
