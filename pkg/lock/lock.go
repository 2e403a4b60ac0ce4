// Package lock provides keyed locks used to make sure only one sweep per group runs at a time.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Locker hands out locks which are never waited for. A caller not getting the lock is expected to
// skip the work as somebody else is already doing it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// SweepKey is the lock key of the sweep of the given group.
func SweepKey(groupID uint) string {
	return fmt.Sprintf("tally:sweep:group:%d", groupID)
}

// Local is a Locker only serializing within the process. The ttl is ignored as a lock can't outlive
// the process holding it.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// TryLock acquires the lock of key if it's not held. It never blocks.
func (l *Local) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.held, key)
		})
	}
	return release, true, nil
}
