package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle counts failed login attempts per username in Redis. It is a
// brute-force brake only and never participates in access decisions; when
// Redis is unreachable the throttle fails open.
type LoginThrottle struct {
	client *redis.Client
	max    int
	window time.Duration
	logger *slog.Logger
}

// NewLoginThrottle constructs a throttle allowing max failures per window.
func NewLoginThrottle(client *redis.Client, max int, window time.Duration, logger *slog.Logger) *LoginThrottle {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginThrottle{client: client, max: max, window: window, logger: logger}
}

func (t *LoginThrottle) key(username string) string {
	return "login:fail:" + strings.ToLower(username)
}

// Blocked reports whether the username has exhausted its failure budget.
func (t *LoginThrottle) Blocked(ctx context.Context, username string) bool {
	if t == nil || t.client == nil {
		return false
	}
	count, err := t.client.Get(ctx, t.key(username)).Int()
	if err != nil {
		if err != redis.Nil {
			t.logger.Warn("login throttle read", slog.Any("error", err))
		}
		return false
	}
	return count >= t.max
}

// RecordFailure increments the failure counter, starting the window on the
// first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) {
	if t == nil || t.client == nil {
		return
	}
	key := t.key(username)
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("login throttle record", slog.Any("error", err))
	}
}

// Clear resets the counter after a successful login.
func (t *LoginThrottle) Clear(ctx context.Context, username string) {
	if t == nil || t.client == nil {
		return
	}
	if err := t.client.Del(ctx, t.key(username)).Err(); err != nil {
		t.logger.Warn("login throttle clear", slog.Any("error", fmt.Errorf("del: %w", err)))
	}
}
