package hotkey

import (
	"context"
	"fmt"
	"time"
)

type Mode string

const (
	// ModeToggle starts on one press and stops on the next.
	ModeToggle Mode = "toggle"
	// ModeHybrid behaves like ModeToggle for a tap, but a press held past the
	// long-press threshold records only while held.
	ModeHybrid Mode = "hybrid"
	ModeOff    Mode = "off"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeToggle:
		return ModeToggle, nil
	case ModeHybrid, ModeOff:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown hotkey mode %q (use toggle, hybrid or off)", s)
}

// Actions are invoked from the dispatch goroutine.
type Actions struct {
	Start  func()
	Stop   func()
	Active func() bool
}

type pressState int

const (
	stIdle pressState = iota
	stToggleRecording
)

// Dispatch turns key presses into Start and Stop calls until ctx is done.
// Active lets a session stopped elsewhere (the overlay, a signal) resync the
// state machine when the next press arrives.
func Dispatch(ctx context.Context, hk Hotkey, mode Mode, longPress time.Duration, a Actions) {
	if mode == ModeOff {
		return
	}
	state := stIdle
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
		}

		// checked after the press: the session may have ended while we waited
		if state == stToggleRecording && a.Active != nil && !a.Active() {
			state = stIdle
		}

		if state == stToggleRecording {
			// next press stops on its release
			if !waitKeyup(ctx, hk) {
				return
			}
			a.Stop()
			state = stIdle
			continue
		}

		a.Start()
		if mode == ModeToggle {
			if !waitKeyup(ctx, hk) {
				return
			}
			state = stToggleRecording
			continue
		}

		timer := time.NewTimer(longPress)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			// held: stop on release
			if !waitKeyup(ctx, hk) {
				return
			}
			a.Stop()
			state = stIdle
		case <-hk.Keyup():
			timer.Stop()
			state = stToggleRecording
		}
	}
}

func waitKeyup(ctx context.Context, hk Hotkey) bool {
	select {
	case <-ctx.Done():
		return false
	case <-hk.Keyup():
		return true
	}
}
