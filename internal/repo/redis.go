package repo

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/adilzhan/auth-core/internal/domain"
)

type Redis struct{ C *redis.Client }

func NewRedis(addr string) *Redis {
	return &Redis{C: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Ping(ctx context.Context) error { return r.C.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.C.Close() }

const statePrefix = "oauth_state:"

// RedisStates implements oauth.StateStore. Expiry rides on the key TTL and
// GETDEL makes consumption atomic across concurrent callback deliveries.
type RedisStates struct{ r *Redis }

func NewRedisStates(r *Redis) *RedisStates { return &RedisStates{r: r} }

func (s *RedisStates) Put(ctx context.Context, state string, provider domain.OAuthProvider, ttl time.Duration) error {
	if err := s.r.C.Set(ctx, statePrefix+state, string(provider), ttl).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *RedisStates) Consume(ctx context.Context, state string) (domain.OAuthProvider, error) {
	v, err := s.r.C.GetDel(ctx, statePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidState
	}
	if err != nil {
		return "", storeErr(err)
	}
	return domain.OAuthProvider(v), nil
}

// RateLimiter is a fixed one-minute window counter per key.
type RateLimiter struct {
	r      *Redis
	PerMin int
}

func NewRateLimiter(r *Redis, perMin int) *RateLimiter {
	return &RateLimiter{r: r, PerMin: perMin}
}

// Allow reports whether one more hit fits the window. Fails open on store
// errors so an unavailable Redis never locks everyone out.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.r == nil || l.PerMin <= 0 {
		return true
	}
	n, err := l.r.C.Incr(ctx, "rl:"+key).Result()
	if err != nil {
		return true
	}
	if n == 1 {
		l.r.C.Expire(ctx, "rl:"+key, time.Minute)
	}
	return n <= int64(l.PerMin)
}
