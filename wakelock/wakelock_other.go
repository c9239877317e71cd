//go:build !linux && !darwin

package wakelock

import "context"

type unsupported struct{}

func newPlatform() Locker {
	return unsupported{}
}

func (unsupported) Acquire(context.Context, string) (Lock, error) {
	return nil, ErrUnsupported
}
