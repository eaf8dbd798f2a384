package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LocalLocker is an in-process keyed mutex for single-process deployments.
// Entries are dropped once no goroutine holds or waits for them.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates an empty locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[uuid.UUID]*entry)}
}

func (l *LocalLocker) Lock(ctx context.Context, owner uuid.UUID) (Unlock, error) {
	l.mu.Lock()
	e, ok := l.entries[owner]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[owner] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(owner, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(owner, e)
		})
	}, nil
}

func (l *LocalLocker) release(owner uuid.UUID, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, owner)
	}
}

// Len returns the number of owners currently held or awaited.
func (l *LocalLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
