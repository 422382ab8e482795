package slotlock

import (
	"context"
	"sync"
)

// MemoryLocker is a keyed mutex for single-instance deployments. Entries are
// reference counted and removed once nobody holds or waits for them.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*slot)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (Release, error) {
	s := l.ref(key)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctxErr(ctx, key)
	}

	var once sync.Once
	return func() error {
		once.Do(func() {
			<-s.sem
			l.unref(key, s)
		})
		return nil
	}, nil
}

func (l *MemoryLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *MemoryLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
