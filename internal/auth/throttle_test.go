package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newThrottle(t *testing.T, max int) (*LoginThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginThrottle(client, max, time.Minute, nil), mr
}

func TestThrottleBlocksAfterMaxFailures(t *testing.T) {
	throttle, _ := newThrottle(t, 3)
	ctx := context.Background()

	require.False(t, throttle.Blocked(ctx, "student1"))
	for i := 0; i < 3; i++ {
		throttle.RecordFailure(ctx, "student1")
	}
	require.True(t, throttle.Blocked(ctx, "student1"))
	require.True(t, throttle.Blocked(ctx, "STUDENT1"), "usernames compare case-insensitively")
	require.False(t, throttle.Blocked(ctx, "student2"))
}

func TestThrottleClearResetsCounter(t *testing.T) {
	throttle, _ := newThrottle(t, 2)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "student1")
	throttle.RecordFailure(ctx, "student1")
	require.True(t, throttle.Blocked(ctx, "student1"))

	throttle.Clear(ctx, "student1")
	require.False(t, throttle.Blocked(ctx, "student1"))
}

func TestThrottleWindowExpires(t *testing.T) {
	throttle, mr := newThrottle(t, 1)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "student1")
	require.True(t, throttle.Blocked(ctx, "student1"))

	mr.FastForward(2 * time.Minute)
	require.False(t, throttle.Blocked(ctx, "student1"))
}

func TestThrottleFailsOpenWithoutRedis(t *testing.T) {
	var throttle *LoginThrottle
	require.False(t, throttle.Blocked(context.Background(), "student1"))
}
