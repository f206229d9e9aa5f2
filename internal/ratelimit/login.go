package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited = errors.New("login rate limited")
	ErrUnavailable = errors.New("rate limit backend unavailable")
)

type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// LoginLimiter counts failed login attempts per identifier in a fixed
// window. A nil limiter or nil client allows everything.
type LoginLimiter struct {
	redis  redis.UniversalClient
	config LoginConfig
}

func NewLoginLimiter(redisClient redis.UniversalClient, cfg LoginConfig) *LoginLimiter {
	return &LoginLimiter{redis: redisClient, config: cfg}
}

func (l *LoginLimiter) key(identifier string) string {
	return "login:fail:" + identifier
}

// Check fails with ErrRateLimited once the identifier has used up its
// attempts for the current window.
func (l *LoginLimiter) Check(ctx context.Context, identifier string) error {
	if l == nil || l.redis == nil || identifier == "" {
		return nil
	}

	count, err := l.redis.Get(ctx, l.key(identifier)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure bumps the counter, starting the window on the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, identifier string) error {
	if l == nil || l.redis == nil || identifier == "" {
		return nil
	}

	count, err := l.redis.Incr(ctx, l.key(identifier)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(identifier), l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	if l == nil || l.redis == nil || identifier == "" {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
