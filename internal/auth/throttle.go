package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed logins per email in Redis. A nil *LoginLimiter
// never blocks.
type LoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewLoginLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, maxAttempts: int64(maxAttempts), window: window}
}

func failKey(email string) string {
	return "login_fail:" + strings.ToLower(strings.TrimSpace(email))
}

// Blocked reports whether the email has used up its failed attempts.
func (l *LoginLimiter) Blocked(ctx context.Context, email string) (bool, error) {
	if l == nil {
		return false, nil
	}
	n, err := l.rdb.Get(ctx, failKey(email)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= l.maxAttempts, nil
}

// Fail records a failed attempt. The window starts at the first failure.
func (l *LoginLimiter) Fail(ctx context.Context, email string) error {
	if l == nil {
		return nil
	}
	key := failKey(email)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return l.rdb.Expire(ctx, key, l.window).Err()
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if l == nil {
		return nil
	}
	return l.rdb.Del(ctx, failKey(email)).Err()
}
