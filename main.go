package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"vmemo/audio"
	"vmemo/beep"
	"vmemo/config"
	"vmemo/hotkey"
	"vmemo/log"
	"vmemo/shutdown"
)

var version = "dev"

// exitCode lets a command choose the process exit status without cobra
// printing an error.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

// initCrashLog routes runtime crash output to crash_log.txt before any cgo
// audio or hotkey code runs. Flags are not parsed yet, so --logpath is read by hand.
func initCrashLog() {
	logPath, err := log.ResolveDir(logPathArg(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
		return
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}
}

func logPathArg(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--logpath" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "--logpath="):
			return strings.TrimPrefix(arg, "--logpath=")
		}
	}
	return ""
}

func run() {
	err := newRootCmd().Execute()
	log.Close()

	var code exitCode
	switch {
	case errors.As(err, &code):
		os.Exit(int(code))
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

type rootFlags struct {
	vault     string
	device    string
	config    string
	logPath   string
	hotkey    string
	longPress time.Duration
	fakeAudio string
}

func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	if f.vault != "" {
		cfg.VaultDir = config.ExpandTilde(f.vault)
	}
	if f.device != "" {
		cfg.Device = f.device
	}
	if f.hotkey != "" {
		cfg.Hotkey = f.hotkey
	}
	return cfg, nil
}

// audioContext replays --fake-audio when given. A nil result means the real
// backend, opened on first use.
func (f *rootFlags) audioContext() (audio.Context, error) {
	if f.fakeAudio == "" {
		return nil, nil
	}
	ctx, err := audio.NewFakeContextFromWAV(f.fakeAudio, true)
	if err != nil {
		return nil, fmt.Errorf("fake audio: %w", err)
	}
	return ctx, nil
}

func initLogging(f *rootFlags) {
	logPath, err := log.ResolveDir(f.logPath)
	if err == nil {
		log.SetDir(logPath)
	}
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func consoleWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// startHotkey registers the global shortcut and dispatches it to the
// controller until ctx is done. It returns nil when the shortcut is off.
func startHotkey(ctx context.Context, a *app, mode hotkey.Mode, longPress time.Duration) (hotkey.Hotkey, error) {
	if mode == hotkey.ModeOff {
		return nil, nil
	}
	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		return nil, err
	}
	go hotkey.Dispatch(ctx, hk, mode, longPress, hotkey.Actions{
		Start:  func() { a.ctrl.Start(ctx) },
		Stop:   a.ctrl.Stop,
		Active: a.ctrl.Active,
	})
	return hk, nil
}

type sessionMode int

const (
	modeMain sessionMode = iota
	modeRecord
	modeSettings
)

// runSession runs the full-screen UI, or the line driver when stdin or stdout
// is not a terminal.
func runSession(f *rootFlags, mode sessionMode) error {
	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	hkMode, err := hotkey.ParseMode(cfg.Hotkey)
	if err != nil {
		return err
	}
	audioCtx, err := f.audioContext()
	if err != nil {
		return err
	}
	initLogging(f)

	if !interactive() {
		return runConsole(cfg, audioCtx, mode)
	}

	host := &tuiHost{}
	a, err := newApp(cfg, host, appOptions{Audio: audioCtx})
	if err != nil {
		return err
	}
	log.ProcessStart(version, a.vault.Root())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := tuiOptions{
		VaultRoot:    a.vault.Root(),
		Device:       cfg.Device,
		Hotkey:       hkMode,
		SettingsOnly: mode == modeSettings,
		RecordOnInit: mode == modeRecord,
	}
	var hk hotkey.Hotkey
	if mode != modeSettings {
		hk, err = startHotkey(ctx, a, hkMode, f.longPress)
		if err != nil {
			log.Warnf("global shortcut unavailable: %v", err)
			opts.HotkeyErr = err
		}
	} else {
		opts.Hotkey = hotkey.ModeOff
	}

	p := tea.NewProgram(newTUIModel(ctx, a.ctrl, a.settings, opts), tea.WithAltScreen())
	host.set(p)
	stopWatch := shutdown.Watch(func(os.Signal) { p.Quit() })
	defer stopWatch()

	_, runErr := p.Run()
	host.set(nil)
	cancel()
	if hk != nil {
		hk.Unregister()
	}
	a.shutdown()
	log.ProcessEnd(a.ctrl.Saved())
	return runErr
}

func runConsole(cfg *config.Config, audioCtx audio.Context, mode sessionMode) error {
	if mode == modeSettings {
		return errors.New("settings editor needs a terminal; use --print to show the settings")
	}
	host := newConsoleHost(os.Stderr, consoleWidth())
	a, err := newApp(cfg, host, appOptions{Audio: audioCtx, Cue: beep.Silent{}})
	if err != nil {
		return err
	}
	log.ProcessStart(version, a.vault.Root())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopWatch := shutdown.Watch(func(os.Signal) { cancel() })
	defer stopWatch()

	var code int
	switch mode {
	case modeRecord:
		code = runRecordConsole(ctx, a, os.Stdin, os.Stderr)
	default:
		code = runHeadless(ctx, a, os.Stdin, os.Stdout)
	}
	log.ProcessEnd(a.ctrl.Saved())
	if code != 0 {
		return exitCode(code)
	}
	return nil
}
