package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// RevocationCache remembers signed session ids that were signed out before
// they expired. Entries expire with the token they revoke.
type RevocationCache struct {
	client *redisv9.Client
}

func NewRevocationCache(client *redisv9.Client) *RevocationCache {
	return &RevocationCache{client: client}
}

func (c *RevocationCache) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, revokedKey(id), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked session failed: %w", err)
	}
	return nil
}

func (c *RevocationCache) IsRevoked(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, revokedKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check revoked session failed: %w", err)
	}
	return exists > 0, nil
}

func revokedKey(id string) string {
	return fmt.Sprintf("auth:session:revoked:%s", id)
}
