package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UnreadCache keeps per-viewer unread counters in Redis so conversation
// lists don't recount messages on every request. Counters are bumped by
// the fan-out worker and reset when a conversation is marked read; the
// Postgres count remains the fallback on a miss.
type UnreadCache struct {
	client *redis.Client
}

func NewUnreadCache(redisURL string) (*UnreadCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &UnreadCache{client: client}, nil
}

func unreadKey(conversationID, userID uuid.UUID) string {
	return "unread:" + conversationID.String() + ":" + userID.String()
}

func (c *UnreadCache) Incr(ctx context.Context, conversationID, userID uuid.UUID) error {
	return c.client.Incr(ctx, unreadKey(conversationID, userID)).Err()
}

func (c *UnreadCache) Reset(ctx context.Context, conversationID, userID uuid.UUID) error {
	return c.client.Set(ctx, unreadKey(conversationID, userID), 0, 0).Err()
}

// Get returns the cached counter. ok is false on a miss; callers fall
// back to the database count.
func (c *UnreadCache) Get(ctx context.Context, conversationID, userID uuid.UUID) (int, bool, error) {
	n, err := c.client.Get(ctx, unreadKey(conversationID, userID)).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *UnreadCache) Close() error {
	return c.client.Close()
}
