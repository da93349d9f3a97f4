package bucket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"careflow/internal/ratelimit/models"
)

// slidingWindowScript trims the window, admits the request when there is room, and
// returns {allowed, count, oldest_ms}. Scores are unix milliseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	count = count + 1
	allowed = 1
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = now
if oldest[2] then
	oldestScore = tonumber(oldest[2])
end
return {allowed, count, oldestScore}
`)

// RedisBucketStore shares sliding windows between replicas through sorted sets.
type RedisBucketStore struct {
	client redis.Scripter
	prefix string
	now    func() time.Time
}

func NewRedisBucketStore(client redis.Scripter, prefix string) *RedisBucketStore {
	if prefix == "" {
		prefix = "careflow:ratelimit:"
	}
	return &RedisBucketStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, error) {
	now := s.now()
	res, err := slidingWindowScript.Run(ctx, s.client, []string{s.prefix + key},
		now.UnixMilli(),
		limit.Window.Milliseconds(),
		limit.Requests,
		strconv.FormatInt(now.UnixNano(), 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run sliding window for %s: %w", key, err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("sliding window for %s: unexpected reply length %d", key, len(res))
	}

	count := int(res[1])
	resetAt := time.UnixMilli(res[2]).Add(limit.Window)
	result := &models.RateLimitResult{
		Allowed:   res[0] == 1,
		Limit:     limit.Requests,
		Remaining: max(0, limit.Requests-count),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter(resetAt.Sub(now))
	}
	return result, nil
}
