package doctor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vmemo/audio"
	"vmemo/clipboard"
	"vmemo/encoder"
	"vmemo/hotkey"
	"vmemo/shutdown"
	"vmemo/wakelock"

	"golang.org/x/term"
)

type Options struct {
	Audio    audio.Context
	Device   string
	VaultDir string
	Locker   wakelock.Locker
	Encoder  encoder.Factory
	// Hotkey, when set, waits for the global shortcut to be pressed.
	Hotkey      hotkey.Hotkey
	CaptureTime time.Duration
	Out         io.Writer
}

type check struct {
	title string
	run   func(o *Options) (string, error)
}

// Run executes the diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(o Options) int {
	if o.Out == nil {
		o.Out = os.Stdout
		restore := saveTerminal()
		defer restore()
		stop := shutdown.Watch(func(os.Signal) {
			restore()
			fmt.Fprintln(os.Stdout, "\nInterrupted")
			os.Exit(1)
		})
		defer stop()
	}
	if o.Encoder == nil {
		o.Encoder = encoder.NewWebm
	}
	if o.Locker == nil {
		o.Locker = wakelock.New()
	}
	if o.CaptureTime <= 0 {
		o.CaptureTime = time.Second
	}

	checks := []check{
		{"Audio backend", checkAudio},
		{"Microphone capture", checkCapture},
		{"Vault folder", checkVault},
		{"Clipboard", checkClipboard},
		{"Wake lock", checkWakeLock},
	}
	if o.Hotkey != nil {
		checks = append(checks, check{"Global shortcut", checkHotkey})
	}

	fmt.Fprintln(o.Out, "vmemo doctor - system diagnostics")
	fmt.Fprintln(o.Out, "=================================")

	allPass := true
	for i, c := range checks {
		fmt.Fprintln(o.Out)
		fmt.Fprintf(o.Out, "[%d/%d] %s\n", i+1, len(checks), c.title)
		msg, err := c.run(&o)
		if err != nil {
			fmt.Fprintf(o.Out, "  FAIL: %v\n", err)
			allPass = false
			continue
		}
		fmt.Fprintf(o.Out, "  PASS: %s\n", msg)
	}

	fmt.Fprintln(o.Out)
	if allPass {
		fmt.Fprintln(o.Out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(o.Out, "Some checks failed. See details above.")
	return 1
}

func checkAudio(o *Options) (string, error) {
	if o.Audio == nil {
		return "", fmt.Errorf("no audio backend")
	}
	devices, err := o.Audio.Devices()
	if err != nil {
		return "", fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return "", fmt.Errorf("no capture devices found")
	}
	if _, err := audio.FindDevice(o.Audio, o.Device); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d capture device(s)", len(devices)), nil
}

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

// checkCapture records briefly and encodes the result, so a pass means the
// whole recording path works.
func checkCapture(o *Options) (string, error) {
	if o.Audio == nil {
		return "", fmt.Errorf("no audio backend")
	}
	dev, err := audio.FindDevice(o.Audio, o.Device)
	if err != nil {
		return "", err
	}
	capture, err := o.Audio.NewCapture(dev, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return "", fmt.Errorf("cannot open microphone: %w", err)
	}
	defer capture.Close()

	var bufMu sync.Mutex
	var pcm []byte
	capture.SetCallback(func(data []byte, _ uint32) {
		bufMu.Lock()
		pcm = append(pcm, data...)
		bufMu.Unlock()
	})
	if err := capture.Start(); err != nil {
		return "", fmt.Errorf("cannot start microphone: %w", err)
	}
	time.Sleep(o.CaptureTime)
	capture.Stop()
	capture.ClearCallback()

	bufMu.Lock()
	raw := pcm
	bufMu.Unlock()
	if len(raw) == 0 {
		return "", fmt.Errorf("no audio captured from %s", capture.DeviceName())
	}

	var out bytes.Buffer
	enc, err := o.Encoder(nopCloser{&out})
	if err != nil {
		return "", err
	}
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(uint16(raw[i*2]) | uint16(raw[i*2+1])<<8)
	}
	if err := enc.EncodeBlock(samples); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return fmt.Sprintf("%s: %.1f KB PCM", capture.DeviceName(), float64(len(raw))/1024), nil
}

func checkVault(o *Options) (string, error) {
	if o.VaultDir == "" {
		return "", fmt.Errorf("no vault configured (set vault_dir or --vault)")
	}
	info, err := os.Stat(o.VaultDir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a folder", o.VaultDir)
	}
	f, err := os.CreateTemp(o.VaultDir, ".vmemo-doctor-*")
	if err != nil {
		return "", fmt.Errorf("vault not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return filepath.Clean(o.VaultDir) + " is writable", nil
}

func checkClipboard(*Options) (string, error) {
	testStr := fmt.Sprintf("vmemo-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		prev, _ := clipboard.Read()
		defer clipboard.Copy(prev)
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return "", fmt.Errorf("clipboard %s failed: %w", res.phase, res.err)
		}
		if res.readback != testStr {
			return "", fmt.Errorf("clipboard mismatch: wrote %q, got %q", testStr, res.readback)
		}
		return "clipboard write/read verified", nil
	case <-time.After(3 * time.Second):
		return "", fmt.Errorf("clipboard timed out (clipboard tool hung - compositor not accessible?)")
	}
}

func checkWakeLock(o *Options) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	lock, err := o.Locker.Acquire(ctx, "vmemo doctor")
	if err != nil {
		return "", err
	}
	if err := lock.Release(ctx); err != nil {
		return "", fmt.Errorf("release: %w", err)
	}
	return "sleep inhibitor acquired and released", nil
}

func checkHotkey(o *Options) (string, error) {
	fmt.Fprintf(o.Out, "Press %s...\n", hotkey.Label)
	if err := o.Hotkey.Register(); err != nil {
		return "", fmt.Errorf("could not register hotkey: %w", err)
	}
	defer o.Hotkey.Unregister()

	select {
	case <-o.Hotkey.Keydown():
		select {
		case <-o.Hotkey.Keyup():
		case <-time.After(5 * time.Second):
		}
		return "hotkey detected", nil
	case <-time.After(10 * time.Second):
		return "", fmt.Errorf("timeout waiting for hotkey")
	}
}

// saveTerminal snapshots stdin's terminal mode so evdev or x/hotkey grabs
// cannot leave it raw. It returns a no-op when stdin is not a terminal.
func saveTerminal() (restore func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	state, err := term.GetState(fd)
	if err != nil {
		return func() {}
	}
	var once sync.Once
	return func() {
		once.Do(func() { term.Restore(fd, state) })
	}
}
