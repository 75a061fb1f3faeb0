package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals/internal/app/policies"
)

type countingPort struct {
	calls int
	err   error
}

func (p *countingPort) Validate(_ context.Context, code string) (policies.Referral, error) {
	p.calls++
	if p.err != nil {
		return policies.Referral{}, p.err
	}
	return policies.Referral{Code: code, Valid: code == "FRIEND", Percentage: 10}, nil
}

func newCache(t *testing.T, next policies.ReferralPort) (ReferralCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ReferralCache{Next: next, Client: client, TTL: time.Minute}, mr
}

func TestReferralCacheHit(t *testing.T) {
	port := &countingPort{}
	cache, mr := newCache(t, port)

	first, err := cache.Validate(context.Background(), "FRIEND")
	require.NoError(t, err)
	second, err := cache.Validate(context.Background(), "FRIEND")
	require.NoError(t, err)

	assert.Equal(t, 1, port.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("referral:FRIEND"))
	assert.Equal(t, time.Minute, mr.TTL("referral:FRIEND"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Validate(context.Background(), "FRIEND")
	require.NoError(t, err)
	assert.Equal(t, 2, port.calls)
}

func TestReferralCacheKeepsCodesCaseSensitive(t *testing.T) {
	port := &countingPort{}
	cache, mr := newCache(t, port)

	lower, err := cache.Validate(context.Background(), "friend")
	require.NoError(t, err)
	upper, err := cache.Validate(context.Background(), "FRIEND")
	require.NoError(t, err)

	assert.False(t, lower.Valid)
	assert.Equal(t, "friend", lower.Code)
	assert.True(t, upper.Valid)
	assert.Equal(t, "FRIEND", upper.Code)
	assert.Equal(t, 2, port.calls)
	assert.True(t, mr.Exists("referral:friend"))
	assert.True(t, mr.Exists("referral:FRIEND"))
}

func TestReferralCacheSkipsErrors(t *testing.T) {
	port := &countingPort{err: policies.ErrReferralUnavailable}
	cache, mr := newCache(t, port)

	_, err := cache.Validate(context.Background(), "FRIEND")
	require.ErrorIs(t, err, policies.ErrReferralUnavailable)
	assert.False(t, mr.Exists("referral:FRIEND"))
}

func TestReferralCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	port := &countingPort{}
	cache, mr := newCache(t, port)
	mr.Close()

	ref, err := cache.Validate(context.Background(), "FRIEND")
	require.NoError(t, err)
	assert.True(t, ref.Valid)
	assert.Equal(t, 1, port.calls)
}
