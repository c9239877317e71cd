package wakelock

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
)

// caffeinate holds an idle-sleep assertion for as long as the child runs.
type caffeinate struct{}

func newPlatform() Locker {
	return caffeinate{}
}

func (caffeinate) Acquire(_ context.Context, _ string) (Lock, error) {
	path, err := exec.LookPath("caffeinate")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	cmd := exec.Command(path, "-i", "-w", strconv.Itoa(os.Getpid()))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start caffeinate: %w", err)
	}
	l := &procLock{cmd: cmd, done: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(l.done)
	}()
	return l, nil
}

type procLock struct {
	once sync.Once
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func (l *procLock) Release(ctx context.Context) error {
	l.once.Do(func() {
		if err := l.cmd.Process.Kill(); err != nil {
			select {
			case <-l.done:
				return
			default:
			}
			l.err = err
			return
		}
		select {
		case <-l.done:
		case <-ctx.Done():
			l.err = ctx.Err()
		}
	})
	return l.err
}
