//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

// the global shortcut needs the main OS thread
func init() {
	runtime.LockOSThread()
}

func main() {
	// crash logging goes first, before any cgo code runs
	initCrashLog()
	mainthread.Init(run)
}
