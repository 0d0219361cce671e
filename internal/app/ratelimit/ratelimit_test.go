package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	clock   clockwork.Clock
	counts  map[string]int64
	expires map[string]time.Time
	fail    bool
}

func newFakeCounter(clock clockwork.Clock) *fakeCounter {
	return &fakeCounter{clock: clock, counts: map[string]int64{}, expires: map[string]time.Time{}}
}

func (f *fakeCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.fail {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	if at, ok := f.expires[key]; ok && !f.clock.Now().Before(at) {
		delete(f.counts, key)
		delete(f.expires, key)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCounter) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	f.expires[key] = f.clock.Now().Add(d)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCounter) TTL(_ context.Context, key string) *redis.DurationCmd {
	at, ok := f.expires[key]
	if !ok {
		return redis.NewDurationResult(-1, nil)
	}
	return redis.NewDurationResult(at.Sub(f.clock.Now()), nil)
}

func TestRedisFixedWindow(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	rdb := newFakeCounter(clock)
	l := NewRedis(rdb, clock, 15*time.Minute, 3)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "w1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}
	res, err := l.Allow(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, clock.Now().Add(15*time.Minute), res.ResetAt)

	res, err = l.Allow(ctx, "w2")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "keys are independent")

	clock.Advance(15 * time.Minute)
	res, err = l.Allow(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestRedisRestoresLostExpiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	rdb := newFakeCounter(clock)
	rdb.counts["ratelimit:w1"] = 1
	l := NewRedis(rdb, clock, time.Minute, 5)

	_, err := l.Allow(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Minute), rdb.expires["ratelimit:w1"])
}

func TestRedisError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rdb := newFakeCounter(clock)
	rdb.fail = true
	_, err := NewRedis(rdb, clock, time.Minute, 5).Allow(context.Background(), "w1")
	assert.Error(t, err)
}

func TestLocalBucket(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	l := NewLocal(clock, 10*time.Minute, 2)

	res, err := l.Allow(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, _ = l.Allow(ctx, "w1")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "w1")
	assert.False(t, res.Allowed)
	assert.True(t, res.ResetAt.After(clock.Now()))

	clock.Advance(5 * time.Minute)
	res, _ = l.Allow(ctx, "w1")
	assert.True(t, res.Allowed, "one token refilled")

	clock.Advance(time.Hour)
	l.Prune()
	assert.Empty(t, l.limiters)
}
