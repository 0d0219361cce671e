package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Result of one Allow call.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Counter is the subset of *redis.Client the fixed window needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// Redis is a fixed window limiter shared by every instance behind the
// same Redis.
type Redis struct {
	rdb    Counter
	clock  clockwork.Clock
	window time.Duration
	max    int
}

func NewRedis(rdb Counter, clock clockwork.Clock, window time.Duration, max int) *Redis {
	return &Redis{rdb: rdb, clock: clock, window: window, max: max}
}

func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	k := "ratelimit:" + key
	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, errors.Wrap(err, "incr rate limit counter")
	}

	ttl := r.window
	if n == 1 {
		_ = r.rdb.Expire(ctx, k, r.window).Err()
	} else if d, err := r.rdb.TTL(ctx, k).Result(); err == nil {
		if d > 0 {
			ttl = d
		} else {
			// counter lost its expiry
			_ = r.rdb.Expire(ctx, k, r.window).Err()
		}
	}

	remaining := r.max - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   n <= int64(r.max),
		Remaining: remaining,
		ResetAt:   r.clock.Now().Add(ttl),
	}, nil
}

// Local limits per key in process with a token bucket refilled at
// max per window.
type Local struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func NewLocal(clock clockwork.Clock, window time.Duration, max int) *Local {
	if max < 1 {
		max = 1
	}
	return &Local{
		clock:    clock,
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *Local) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}

	now := l.clock.Now()
	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	// time until the bucket is full again
	missing := float64(l.burst) - tokens
	resetAt := now
	if missing > 0 {
		resetAt = now.Add(time.Duration(missing / float64(l.limit) * float64(time.Second)))
	}
	return Result{Allowed: allowed, Remaining: remaining, ResetAt: resetAt}, nil
}

// Prune drops limiters that are full again.
func (l *Local) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	for k, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, k)
		}
	}
}
