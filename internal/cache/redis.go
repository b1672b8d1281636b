package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter implements Cache on top of Redis.
type RedisAdapter struct {
	client *redis.Client
	prefix string
}

// NewRedisAdapter creates a Redis-backed cache.
// redisURL format: redis://[:password@]host[:port][/database]
func NewRedisAdapter(redisURL, prefix string) (*RedisAdapter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisAdapter{client: redis.NewClient(opts), prefix: prefix}, nil
}

// generationTTL outlives any entry TTL; a generation key only disappears long after its last bump.
const generationTTL = 48 * time.Hour

// setIfGeneration: KEYS[1] entry, KEYS[2] generation; ARGV value, expected generation, ttl in ms.
var setIfGeneration = redis.NewScript(`
local g = redis.call('GET', KEYS[2]) or '0'
if g ~= ARGV[2] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

func (r *RedisAdapter) key(k string) string { return r.prefix + k }

func (r *RedisAdapter) genKey(k string) string { return r.prefix + "gen:" + k }

// Get returns the value stored under key.
func (r *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key with ttl.
func (r *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Generation returns the invalidation counter of key.
func (r *RedisAdapter) Generation(ctx context.Context, key string) (uint64, error) {
	raw, err := r.client.Get(ctx, r.genKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation %s: %w", key, err)
	}
	gen, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis generation %s: %w", key, err)
	}
	return gen, nil
}

// SetIfGeneration stores value with ttl only if the generation of key is still gen.
// The check and the write run as one Lua script.
func (r *RedisAdapter) SetIfGeneration(ctx context.Context, key string, value []byte, ttl time.Duration, gen uint64) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	n, err := setIfGeneration.Run(ctx, r.client,
		[]string{r.key(key), r.genKey(key)},
		value, strconv.FormatUint(gen, 10), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis set %s: %w", key, err)
	}
	return n == 1, nil
}

// Invalidate deletes key and bumps its generation inside MULTI/EXEC.
func (r *RedisAdapter) Invalidate(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key(key))
		p.Incr(ctx, r.genKey(key))
		p.Expire(ctx, r.genKey(key), generationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate %s: %w", key, err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (r *RedisAdapter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
