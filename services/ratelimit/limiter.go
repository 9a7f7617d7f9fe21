package ratelimit

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Limiter allows at most a fixed number of hits per key and window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func windowKey(key string, window time.Duration, now time.Time) string {
	return keyPrefix + key + ":" + strconv.FormatInt(now.UnixNano()/int64(window), 10)
}

// RedisLimiter counts hits in redis, so the limit holds across API instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := windowKey(key, l.window, l.now())

	var hits *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hits = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "counting hits")
	}
	return hits.Val() <= int64(l.limit), nil
}

// Ping checks the redis connection.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// MemoryLimiter is a single-process Limiter.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   map[string]int
	limit  int
	window time.Duration
	now    func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{hits: make(map[string]int), limit: limit, window: window, now: time.Now}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := windowKey(key, l.window, now)
	// drop the counters of past windows
	current := strconv.FormatInt(now.UnixNano()/int64(l.window), 10)
	for hk := range l.hits {
		if !strings.HasSuffix(hk, ":"+current) {
			delete(l.hits, hk)
		}
	}
	l.hits[k]++
	return l.hits[k] <= l.limit, nil
}
