package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"vmemo/audio"
	"vmemo/beep"
	"vmemo/config"
	"vmemo/encoder"
	"vmemo/notify"
	"vmemo/settings"
	"vmemo/wakelock"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeOpener struct {
	mu     sync.Mutex
	opened []string
}

func (o *fakeOpener) Open(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, path)
	return nil
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

type headlessEnv struct {
	app  *app
	out  *syncBuffer
	open *fakeOpener
	clip *fakeClipboard
}

func newHeadlessEnv(t *testing.T, st *settings.Settings) *headlessEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		VaultDir:     dir,
		SettingsPath: filepath.Join(dir, ".vmemo", "data.json"),
		Wikilinks:    true,
	}
	if st != nil {
		store, err := settings.Load(cfg.SettingsPath)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Update(func(s *settings.Settings) { *s = *st }); err != nil {
			t.Fatal(err)
		}
	}

	env := &headlessEnv{out: &syncBuffer{}, open: &fakeOpener{}, clip: &fakeClipboard{}}
	a, err := newApp(cfg, newConsoleHost(env.out, 80), appOptions{
		Audio:   audio.NewFakeContext(make([]byte, 48000), false),
		Encoder: encoder.NewFake,
		Locker:  wakelock.Nop{},
		Cue:     beep.Silent{},
		Notify:  notify.Options{Opener: env.open, Clipboard: env.clip},
	})
	if err != nil {
		t.Fatal(err)
	}
	env.app = a
	return env
}

func (e *headlessEnv) memos(t *testing.T) []string {
	t.Helper()
	var found []string
	filepath.Walk(e.app.vault.Root(), func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.HasSuffix(path, ".webm") {
			found = append(found, path)
		}
		return nil
	})
	return found
}

func TestHeadlessRecordSaveOpen(t *testing.T) {
	env := newHeadlessEnv(t, nil)
	code := runHeadless(context.Background(), env.app, strings.NewReader("START\nSTOP\nWAIT\nQUIT\n"), env.out)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}

	files := env.memos(t)
	if len(files) != 1 {
		t.Fatalf("expected 1 memo, got %v", files)
	}
	rel, _ := filepath.Rel(env.app.vault.Root(), files[0])
	if !strings.HasPrefix(filepath.ToSlash(rel), "VoiceMemos/") {
		t.Errorf("memo saved at %s", rel)
	}
	// auto-open is on by default
	if len(env.open.opened) != 1 || env.open.opened[0] != files[0] {
		t.Errorf("opened %v, want [%s]", env.open.opened, files[0])
	}
	if env.clip.text != "" {
		t.Errorf("auto-copy is off by default, clipboard got %q", env.clip.text)
	}
}

func TestHeadlessAutoCopyAndDialog(t *testing.T) {
	env := newHeadlessEnv(t, &settings.Settings{AutoCopy: true, ShowDialog: true})
	runHeadless(context.Background(), env.app, strings.NewReader("START\nSTOP\nWAIT\n"), env.out)

	if !strings.HasPrefix(env.clip.text, "![[VoiceMemos/") || !strings.HasSuffix(env.clip.text, ".webm]]") {
		t.Errorf("clipboard = %q", env.clip.text)
	}
	out := env.out.String()
	for _, want := range []string{notify.NoticeLinkCopied, "saved VoiceMemos/"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(env.open.opened) != 0 {
		t.Errorf("auto-open is off, opened %v", env.open.opened)
	}
}

func TestHeadlessEOFSavesOpenSession(t *testing.T) {
	env := newHeadlessEnv(t, &settings.Settings{})
	runHeadless(context.Background(), env.app, strings.NewReader("START\n"), env.out)
	if files := env.memos(t); len(files) != 1 {
		t.Fatalf("expected 1 memo, got %v", files)
	}
}

func TestHeadlessSecondStartNotice(t *testing.T) {
	env := newHeadlessEnv(t, &settings.Settings{})
	runHeadless(context.Background(), env.app, strings.NewReader("START\nSTART\nSTOP\nWAIT\nQUIT\n"), env.out)
	if !strings.Contains(env.out.String(), "Already recording") {
		t.Errorf("missing notice:\n%s", env.out.String())
	}
	if files := env.memos(t); len(files) != 1 {
		t.Fatalf("expected 1 memo, got %v", files)
	}
}

func TestHeadlessBadCommands(t *testing.T) {
	env := newHeadlessEnv(t, &settings.Settings{})
	runHeadless(context.Background(), env.app, strings.NewReader("PLAY\nSLEEP\nSLEEP x\n"), env.out)
	out := env.out.String()
	for _, want := range []string{`unknown command "PLAY"`, "SLEEP needs a duration", `bad duration "x"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHeadlessCancelledContext(t *testing.T) {
	env := newHeadlessEnv(t, &settings.Settings{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	defer r.Close()
	if code := runHeadless(ctx, env.app, r, env.out); code != 0 {
		t.Fatalf("exit code %d", code)
	}
}

func TestRecordConsoleStopsOnEnter(t *testing.T) {
	env := newHeadlessEnv(t, &settings.Settings{})
	code := runRecordConsole(context.Background(), env.app, strings.NewReader("\n"), env.out)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if files := env.memos(t); len(files) != 1 {
		t.Fatalf("expected 1 memo, got %v", files)
	}
}

func TestLogPathArg(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"--logpath", "./logs"}, "./logs"},
		{[]string{"record", "--logpath=/tmp/x"}, "/tmp/x"},
		{[]string{"--logpath"}, ""},
	}
	for _, tt := range tests {
		if got := logPathArg(tt.args); got != tt.want {
			t.Errorf("logPathArg(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
