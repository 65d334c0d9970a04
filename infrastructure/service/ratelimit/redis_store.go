package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fixora/marketplace/application/port/outbound"
)

// fixedWindowScript performs the whole check-and-increment server side.
// KEYS[1] bucket key, ARGV[1] limit, ARGV[2] window in ms.
// Returns {count, ttl_ms, allowed}.
var fixedWindowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]))
local window = tonumber(ARGV[2])
if not current then
	redis.call('SET', KEYS[1], 1, 'PX', window)
	return {1, window, 1}
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], window)
	ttl = window
end
if current >= tonumber(ARGV[1]) then
	return {current, ttl, 0}
end
current = redis.call('INCR', KEYS[1])
return {current, ttl, 1}
`)

// RedisStore keeps buckets in Redis so limits hold across server instances.
// Expired windows disappear through key TTLs.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

var _ outbound.BucketStore = (*RedisStore)(nil)

func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration) (outbound.Bucket, error) {
	res, err := fixedWindowScript.Run(ctx, s.client, []string{s.prefix + key}, limit, window.Milliseconds()).Result()
	if err != nil {
		return outbound.Bucket{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	return parseScriptResult(res, s.now())
}

func parseScriptResult(res interface{}, now time.Time) (outbound.Bucket, error) {
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return outbound.Bucket{}, fmt.Errorf("unexpected rate limit script result: %v", res)
	}
	nums := make([]int64, 3)
	for i, v := range vals {
		n, ok := v.(int64)
		if !ok {
			return outbound.Bucket{}, fmt.Errorf("unexpected rate limit script value at %d: %v", i, v)
		}
		nums[i] = n
	}
	return outbound.Bucket{
		Count:   int(nums[0]),
		ResetAt: now.Add(time.Duration(nums[1]) * time.Millisecond),
		Allowed: nums[2] == 1,
	}, nil
}

// OpenRedis parses url and verifies the connection.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
