package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinicbook/internal/pkg/timegrid"
)

// Locker serializes check-then-insert sequences per key. Release must be
// safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LockKey scopes mutual exclusion to one professional on one date.
func LockKey(professionalID int64, date timegrid.Date) string {
	return fmt.Sprintf("booking:%d:%s", professionalID, date)
}

// MemoryLocker is a keyed mutex for single-instance deployments. Entries are
// dropped once nobody holds or waits for them.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
	wait  time.Duration
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker gives up after wait; wait <= 0 waits until ctx is done.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]*keyLock),
		wait:  wait,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	waitCtx := ctx
	if l.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case kl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.ch
				l.unref(key, kl)
			})
		}, nil
	case <-waitCtx.Done():
		l.unref(key, kl)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrLockTimeout
	}
}

func (l *MemoryLocker) unref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// NoopLocker leaves serialization to the store (advisory lock and exclusion
// constraint on PostgreSQL).
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
