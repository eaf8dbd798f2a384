// Package lock serializes structural mutations per owner. Mutations of
// different owners never share a lock key.
package lock

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrLockTimeout is returned when an owner lock could not be acquired
// before the wait deadline.
var ErrLockTimeout = errors.New("owner lock wait timed out")

// Unlock releases a held lock.
type Unlock func()

// OwnerLocker grants exclusive access to one owner's graph.
type OwnerLocker interface {
	// Lock blocks until the owner's lock is held or ctx is done.
	Lock(ctx context.Context, owner uuid.UUID) (Unlock, error)
}

type heldKey struct{ owner uuid.UUID }

// Acquire takes the owner lock unless ctx already carries it, which makes
// nested mutations in one call chain reentrant. The returned context marks
// the lock as held.
func Acquire(ctx context.Context, locker OwnerLocker, owner uuid.UUID) (context.Context, Unlock, error) {
	if Held(ctx, owner) {
		return ctx, func() {}, nil
	}
	unlock, err := locker.Lock(ctx, owner)
	if err != nil {
		return ctx, nil, err
	}
	return context.WithValue(ctx, heldKey{owner}, true), unlock, nil
}

// Held reports whether ctx carries the owner's lock.
func Held(ctx context.Context, owner uuid.UUID) bool {
	held, _ := ctx.Value(heldKey{owner}).(bool)
	return held
}
