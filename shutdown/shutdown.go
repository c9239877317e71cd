// Package shutdown turns termination signals into a single graceful exit.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals...)
}

// Watch runs fn once, on its own goroutine, when the first termination signal
// arrives. The returned cancel stops watching.
func Watch(fn func(os.Signal)) (cancel func()) {
	ch := make(chan os.Signal, 1)
	Notify(ch)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			fn(sig)
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
