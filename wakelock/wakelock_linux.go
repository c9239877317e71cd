package wakelock

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest    = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindInhibit = "org.freedesktop.login1.Manager.Inhibit"
)

// logind takes a "block" inhibitor lock from systemd-logind. The lock lives as
// long as the returned file descriptor stays open.
type logind struct{}

func newPlatform() Locker {
	return logind{}
}

func (logind) Acquire(ctx context.Context, reason string) (Lock, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: system bus: %v", ErrUnsupported, err)
	}
	defer conn.Close()

	var fd dbus.UnixFD
	obj := conn.Object(logindDest, logindPath)
	call := obj.CallWithContext(ctx, logindInhibit, 0, "sleep:idle", "vmemo", reason, "block")
	if call.Err != nil {
		return nil, fmt.Errorf("logind inhibit: %w", call.Err)
	}
	if err := call.Store(&fd); err != nil {
		return nil, fmt.Errorf("logind inhibit: %w", err)
	}
	return &fdLock{f: os.NewFile(uintptr(fd), "logind-inhibit")}, nil
}

type fdLock struct {
	once sync.Once
	f    *os.File
	err  error
}

func (l *fdLock) Release(context.Context) error {
	l.once.Do(func() { l.err = l.f.Close() })
	return l.err
}
