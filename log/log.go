package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	memoFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

// ResolveDir picks the log directory: flag, then VMEMO_LOG_PATH, then the OS default.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absFromWd(flagPath)
	}
	if envPath := os.Getenv("VMEMO_LOG_PATH"); envPath != "" {
		return absFromWd(envPath)
	}
	return defaultDir()
}

// defaultDir is ~/Library/Logs on macOS, %LOCALAPPDATA% on Windows and
// $XDG_CONFIG_HOME elsewhere.
func defaultDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Logs", "vmemo"), nil
	case "windows":
		base, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, "vmemo", "logs"), nil
	default:
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, "vmemo", "logs"), nil
	}
}

func absFromWd(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	memoFile, err = os.OpenFile(filepath.Join(dir, "memos_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if memoFile != nil {
		memoFile.Close()
		memoFile = nil
	}
	logReady = false
}

// event returns nil before Init; zerolog treats a nil event as disabled.
func event(level zerolog.Level) *zerolog.Event {
	if !logReady {
		return nil
	}
	return diagLog.WithLevel(level)
}

func Info(msg string)                   { event(zerolog.InfoLevel).Msg(msg) }
func Infof(format string, args ...any)  { event(zerolog.InfoLevel).Msgf(format, args...) }
func Warn(msg string)                   { event(zerolog.WarnLevel).Msg(msg) }
func Warnf(format string, args ...any)  { event(zerolog.WarnLevel).Msgf(format, args...) }
func Error(msg string)                  { event(zerolog.ErrorLevel).Msg(msg) }
func Errorf(format string, args ...any) { event(zerolog.ErrorLevel).Msgf(format, args...) }

func SessionStart(id, device, mimeType string) {
	event(zerolog.InfoLevel).
		Str("session", id).
		Str("device", device).
		Str("mime", mimeType).
		Msg("session_start")
}

func RecordingStop(id string, duration time.Duration, chunks int, bytes int) {
	event(zerolog.InfoLevel).
		Str("session", id).
		Float64("duration_s", duration.Seconds()).
		Int("chunks", chunks).
		Int("bytes", bytes).
		Msg("recording_stop")
}

// ActionFailed records a best-effort step that failed without aborting its siblings.
func ActionFailed(id, action string, err error) {
	event(zerolog.WarnLevel).
		Str("session", id).
		Str("action", action).
		Err(err).
		Msg("action_failed")
}

// MemoSaved logs the artifact and appends it to memos_log.txt.
func MemoSaved(id, path string, size int64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Str("path", path).
		Int64("size", size).
		Msg("memo_saved")

	logMu.Lock()
	defer logMu.Unlock()
	if memoFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, path)
	memoFile.WriteString(line)
}

func ProcessStart(version, vault string) {
	event(zerolog.InfoLevel).
		Str("version", version).
		Str("vault", vault).
		Msg("process_start")
}

func ProcessEnd(saved int) {
	event(zerolog.InfoLevel).
		Int("saved", saved).
		Msg("process_end")
}
