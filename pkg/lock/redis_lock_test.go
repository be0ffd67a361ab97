package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l := NewRedisLocker(client, ttl)
	l.retry = 5 * time.Millisecond
	return l, mr
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("interview:lock:s1"))
	assert.Equal(t, time.Minute, mr.TTL("interview:lock:s1"))

	unlock()
	assert.False(t, mr.Exists("interview:lock:s1"))
	unlock()

	again, err := l.Lock(ctx, "s1")
	require.NoError(t, err)
	again()
}

func TestRedisLocker_Contention(t *testing.T) {
	l, _ := newRedisLocker(t, time.Minute)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "s1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestRedisLocker_ContextCancel(t *testing.T) {
	l, _ := newRedisLocker(t, time.Minute)

	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLocker_UnlockKeepsForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)

	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	// 锁过期后被其他持有者拿到
	require.NoError(t, mr.Set("interview:lock:s1", "other-holder"))

	unlock()
	got, err := mr.Get("interview:lock:s1")
	require.NoError(t, err)
	assert.Equal(t, "other-holder", got)
}

func TestRedisLocker_ExpiredLockCanBeRetaken(t *testing.T) {
	l, mr := newRedisLocker(t, time.Second)

	_, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := l.Lock(ctx, "s1")
	require.NoError(t, err)
	unlock()
}
