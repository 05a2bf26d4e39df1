package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerSerializesKey(t *testing.T) {
	l := NewMemoryLocker(0)
	ctx := context.Background()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "booking:1:2025-01-06")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Equal(t, 0, l.size())
}

func TestMemoryLockerKeysAreIndependent(t *testing.T) {
	l := NewMemoryLocker(50 * time.Millisecond)
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "booking:1:2025-01-06")
	require.NoError(t, err)
	defer r1()

	r2, err := l.Acquire(ctx, "booking:1:2025-01-07")
	require.NoError(t, err)
	r2()
}

func TestMemoryLockerTimeout(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	release()
	assert.Equal(t, 0, l.size())

	again, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	again()
}

func TestMemoryLockerContextCancel(t *testing.T) {
	l := NewMemoryLocker(0)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "booking:42:2025-01-06", LockKey(42, mustDate(t, "2025-01-06")))
}
