// Package wakelock keeps the machine from idling or sleeping while a memo is
// being recorded.
package wakelock

import (
	"context"
	"errors"
)

var ErrUnsupported = errors.New("wake lock not supported on this platform")

// Lock is one held inhibitor. Release is safe to call more than once.
type Lock interface {
	Release(ctx context.Context) error
}

type Locker interface {
	Acquire(ctx context.Context, reason string) (Lock, error)
}

// New returns the platform locker.
func New() Locker {
	return newPlatform()
}

// Nop hands out locks that hold nothing.
type Nop struct{}

func (Nop) Acquire(context.Context, string) (Lock, error) {
	return nopLock{}, nil
}

type nopLock struct{}

func (nopLock) Release(context.Context) error { return nil }
