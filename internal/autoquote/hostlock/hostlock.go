// Package hostlock serializes work per host. Local keeps waiters in arrival
// order inside one process; Redis extends the exclusion across instances.
package hostlock

import (
	"context"
	"sync"
)

// Locker grants exclusive access to one host's mutable state.
type Locker interface {
	Lock(ctx context.Context, hostID int64) (unlock func(), err error)
}

// Local is a FIFO keyed lock. Each waiter blocks on the channel of the
// waiter queued before it, so hosts never contend with each other.
type Local struct {
	mu    sync.Mutex
	tails map[int64]chan struct{}
}

// NewLocal constructs an empty keyed lock.
func NewLocal() *Local {
	return &Local{tails: make(map[int64]chan struct{})}
}

// Lock waits for every earlier holder of hostID. On cancellation the queue
// slot is released once the predecessor finishes, keeping the chain intact.
func (l *Local) Lock(ctx context.Context, hostID int64) (func(), error) {
	mine := make(chan struct{})

	l.mu.Lock()
	prev := l.tails[hostID]
	l.tails[hostID] = mine
	l.mu.Unlock()

	release := sync.OnceFunc(func() {
		l.mu.Lock()
		if l.tails[hostID] == mine {
			delete(l.tails, hostID)
		}
		l.mu.Unlock()
		close(mine)
	})

	if prev == nil {
		return release, nil
	}
	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		go func() {
			<-prev
			release()
		}()
		return nil, ctx.Err()
	}
}

// Chain acquires several lockers in order and releases them in reverse.
type Chain []Locker

func (c Chain) Lock(ctx context.Context, hostID int64) (func(), error) {
	unlocks := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, l := range c {
		if l == nil {
			continue
		}
		unlock, err := l.Lock(ctx, hostID)
		if err != nil {
			releaseAll()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return sync.OnceFunc(releaseAll), nil
}
