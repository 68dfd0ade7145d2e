package guestquota

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"atelier/internal/ratelimit/models"
)

// RedisStore keeps each guest row in a hash that expires when its window
// ends. Scripts run atomically on the server, so Consume needs no locking.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Times are unix milliseconds. Returns {allowed, used, window_start, last_used_at}.
var consumeScript = redis.NewScript(`
local used = tonumber(redis.call('HGET', KEYS[1], 'used') or '0')
local start = tonumber(redis.call('HGET', KEYS[1], 'window_start') or '0')
local last = tonumber(redis.call('HGET', KEYS[1], 'last_used_at') or '0')
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
if start == 0 or now - start >= window then
	used = 0
	start = now
	last = now
end
local allowed = 0
if used < limit then
	used = used + 1
	last = now
	allowed = 1
end
redis.call('HSET', KEYS[1], 'used', used, 'window_start', start, 'last_used_at', last)
redis.call('PEXPIREAT', KEYS[1], start + window)
return {allowed, used, start, last}
`)

var releaseScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {}
end
local used = tonumber(redis.call('HGET', KEYS[1], 'used') or '0')
if used > 0 then
	used = used - 1
end
redis.call('HSET', KEYS[1], 'used', used)
return {used, tonumber(redis.call('HGET', KEYS[1], 'window_start')), tonumber(redis.call('HGET', KEYS[1], 'last_used_at'))}
`)

func (s *RedisStore) Consume(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*models.GuestQuota, bool, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{models.RedisGuestKey(key)},
		now.UnixMilli(), window.Milliseconds(), limit).Int64Slice()
	if err != nil {
		return nil, false, fmt.Errorf("consume guest quota: %w", err)
	}
	if len(res) != 4 {
		return nil, false, fmt.Errorf("consume guest quota: unexpected reply length %d", len(res))
	}
	return &models.GuestQuota{
		IPKey:       key,
		Used:        int(res[1]),
		WindowStart: time.UnixMilli(res[2]).UTC(),
		LastUsedAt:  time.UnixMilli(res[3]).UTC(),
	}, res[0] == 1, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) (*models.GuestQuota, error) {
	res, err := releaseScript.Run(ctx, s.client, []string{models.RedisGuestKey(key)}).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("release guest quota: %w", err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("release guest quota: unexpected reply length %d", len(res))
	}
	return &models.GuestQuota{
		IPKey:       key,
		Used:        int(res[0]),
		WindowStart: time.UnixMilli(res[1]).UTC(),
		LastUsedAt:  time.UnixMilli(res[2]).UTC(),
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.GuestQuota, error) {
	return s.load(ctx, models.RedisGuestKey(key), key)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, models.RedisGuestKey(key)).Err(); err != nil {
		return fmt.Errorf("delete guest quota: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*models.GuestQuota, error) {
	var out []*models.GuestQuota
	err := s.scan(ctx, func(redisKey string) error {
		row, err := s.load(ctx, redisKey, strings.TrimPrefix(redisKey, models.RedisGuestKeyPrefix))
		if err != nil {
			return err
		}
		if row != nil {
			out = append(out, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteExpired removes rows past cutoff. Keys normally expire on their own;
// this catches rows written without a TTL.
func (s *RedisStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := s.scan(ctx, func(redisKey string) error {
		row, err := s.load(ctx, redisKey, "")
		if err != nil {
			return err
		}
		if row == nil || row.WindowStart.After(cutoff) {
			return nil
		}
		n, err := s.client.Del(ctx, redisKey).Result()
		if err != nil {
			return fmt.Errorf("delete expired guest quota: %w", err)
		}
		removed += int(n)
		return nil
	})
	return removed, err
}

func (s *RedisStore) scan(ctx context.Context, fn func(redisKey string) error) error {
	iter := s.client.Scan(ctx, 0, models.RedisGuestKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan guest quota: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, redisKey, ipKey string) (*models.GuestQuota, error) {
	fields, err := s.client.HGetAll(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get guest quota: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	used, err := strconv.Atoi(fields["used"])
	if err != nil {
		return nil, fmt.Errorf("parse guest quota used: %w", err)
	}
	start, err := strconv.ParseInt(fields["window_start"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse guest quota window: %w", err)
	}
	last, _ := strconv.ParseInt(fields["last_used_at"], 10, 64)
	return &models.GuestQuota{
		IPKey:       ipKey,
		Used:        used,
		WindowStart: time.UnixMilli(start).UTC(),
		LastUsedAt:  time.UnixMilli(last).UTC(),
	}, nil
}
