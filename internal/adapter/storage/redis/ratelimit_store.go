package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// AttemptStore implements ports.AttemptLimiter with fixed-window counters
// in Redis. Unlike a per-process map, the counters survive restarts and are
// shared across server instances.
type AttemptStore struct {
	client *goredis.Client
	prefix string
}

// NewAttemptStore creates a new Redis-backed attempt limiter.
func NewAttemptStore(client *goredis.Client) *AttemptStore {
	return &AttemptStore{
		client: client,
		prefix: "attempts:",
	}
}

// Allow increments the counter for key in the current window and reports
// whether the attempt is within the limit. Keys are scoped per identity and
// action, e.g. "login:user@example.com".
func (s *AttemptStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	windowID := time.Now().Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis attempts incr: %w", err)
	}

	// Set expiry only on first increment (new window).
	if count == 1 {
		s.client.Expire(ctx, redisKey, window+time.Second)
	}

	return count <= limit, nil
}
