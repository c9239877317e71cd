package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("VMEMO_LOG_PATH", "/tmp/vmemo-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/vmemo-env-log" {
		t.Errorf("got %q, want /tmp/vmemo-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("VMEMO_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "vmemo") {
		t.Errorf("default dir %q does not mention vmemo", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"diagnostics_log.txt", "memos_log.txt"} {
		if _, err := os.Stat(filepath.Join(tmp, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestMemoSaved(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	MemoSaved("abc", "VoiceMemos/2024/03 - March/2024-03-05 09.07.02.webm", 1234)

	data, err := os.ReadFile(filepath.Join(tmp, "memos_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, "2024-03-05 09.07.02.webm") {
		t.Errorf("memos_log.txt missing path, got: %q", line)
	}
	// format: "2006-01-02 15:04:05\t[pid]\tpath\n"
	if strings.Count(line, "\t") != 2 {
		t.Errorf("expected two tabs, got: %q", line)
	}

	diag, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(diag), "memo_saved") {
		t.Errorf("diagnostics log missing memo_saved event: %q", diag)
	}
}

func TestEventsBeforeInitAreDropped(t *testing.T) {
	setupLogDir(t)
	// none of these may panic while logging is not initialized
	Info("x")
	Warnf("%d", 1)
	SessionStart("id", "dev", "audio/webm")
	RecordingStop("id", time.Second, 1, 10)
	ActionFailed("id", "copy", errors.New("boom"))
	MemoSaved("id", "a.webm", 1)
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
