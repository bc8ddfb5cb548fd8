package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)
	key := lockKey("C1", "2025-01-18")

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	_, err = l.Lock(context.Background(), key)
	assert.ErrorIs(t, err, ErrSessionBusy)

	other, err := l.Lock(context.Background(), lockKey("C2", "2025-01-18"))
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_WaiterWakesOnRelease(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		release, err := l.Lock(context.Background(), "k")
		if err == nil {
			release()
		}
		got <- err
	}()

	time.Sleep(10 * time.Millisecond)
	unlock()
	assert.NoError(t, <-got)
}

func TestMemoryLocker_ContextCanceled(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func newRedisLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, 0, wait), mr
}

func TestRedisLocker(t *testing.T) {
	l, mr := newRedisLocker(t, 10*time.Millisecond)
	key := lockKey("C1", "2025-01-18")

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	_, err = l.Lock(context.Background(), key)
	assert.ErrorIs(t, err, ErrSessionBusy)

	unlock()
	assert.False(t, mr.Exists(key))

	again, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t, 10*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// the lock expired and another instance took it
	require.NoError(t, mr.Set("k", "someone-else"))
	unlock()

	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}
