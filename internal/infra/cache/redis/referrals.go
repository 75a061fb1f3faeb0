// Package redis caches remote lookup answers in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"rentals/internal/app/policies"
)

const defaultPrefix = "referral:"

// ReferralCache answers referral lookups from Redis and falls back to Next.
// Verdicts are cached, valid or not; upstream errors are not. Keys use the
// code exactly as given, since case handling belongs to the referral service.
type ReferralCache struct {
	Next   policies.ReferralPort
	Client goredis.Cmdable
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

func (c ReferralCache) Validate(ctx context.Context, code string) (policies.Referral, error) {
	key := c.key(code)
	var ref policies.Referral
	if c.readCache(ctx, key, &ref) {
		return ref, nil
	}
	ref, err := c.Next.Validate(ctx, code)
	if err != nil {
		return policies.Referral{}, err
	}
	c.writeCache(ctx, key, ref)
	return ref, nil
}

func (c ReferralCache) key(code string) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + code
}

func (c ReferralCache) readCache(ctx context.Context, key string, out any) bool {
	if c.Client == nil || c.TTL <= 0 {
		return false
	}
	val, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger().Warn("referral cache read failed", "key", key, "error", err)
		}
		return false
	}
	return json.Unmarshal(val, out) == nil
}

func (c ReferralCache) writeCache(ctx context.Context, key string, val any) {
	if c.Client == nil || c.TTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, key, data, c.TTL).Err(); err != nil {
		c.logger().Warn("referral cache write failed", "key", key, "error", err)
	}
}

func (c ReferralCache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

var _ policies.ReferralPort = ReferralCache{}
