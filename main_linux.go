//go:build linux

package main

func main() {
	// crash logging goes first, before any cgo code runs
	initCrashLog()
	run()
}
