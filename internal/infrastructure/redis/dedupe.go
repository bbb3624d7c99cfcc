package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WebhookDeduper suppresses replayed webhook deliveries. Each delivery is
// keyed by gateway plus a fingerprint of the raw body; the first claim wins
// for the configured TTL.
type WebhookDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWebhookDeduper creates a deduper with the given retention window.
func NewWebhookDeduper(client *redis.Client, ttl time.Duration) *WebhookDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &WebhookDeduper{client: client, ttl: ttl}
}

// Claim returns true if this delivery has not been seen before and marks it
// as seen. SETNX makes the claim atomic across instances.
func (d *WebhookDeduper) Claim(ctx context.Context, gatewayName string, body []byte) (bool, error) {
	sum := sha256.Sum256(body)
	key := fmt.Sprintf("webhook:seen:%s:%s", gatewayName, hex.EncodeToString(sum[:16]))

	ok, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim webhook delivery: %w", err)
	}
	return ok, nil
}
