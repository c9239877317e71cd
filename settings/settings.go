package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultNameTemplate names a memo after the instant it was saved.
const DefaultNameTemplate = "{{.Year}}-{{.Month}}-{{.Day}} {{.Hour}}.{{.Minute}}.{{.Second}}"

type Settings struct {
	// Directory is a vault-relative folder or folder template. Empty means
	// VoiceMemos/YYYY/MM - Month.
	Directory  string `json:"directory"`
	Name       string `json:"name"`
	ShowDialog bool   `json:"showDialog"`
	AutoOpen   bool   `json:"autoOpen"`
	AutoCopy   bool   `json:"autoCopy"`
}

func Defaults() Settings {
	return Settings{
		Directory:  "",
		Name:       DefaultNameTemplate,
		ShowDialog: false,
		AutoOpen:   true,
		AutoCopy:   false,
	}
}

func (s *Settings) trim() {
	s.Directory = strings.TrimSpace(s.Directory)
	s.Name = strings.TrimSpace(s.Name)
}

// Store holds the current settings and writes them back on every change.
type Store struct {
	path string

	mu  sync.Mutex
	cur Settings
}

// Load reads path and merges it over the defaults. A missing file yields defaults.
func Load(path string) (*Store, error) {
	s := &Store{path: path, cur: Defaults()}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	// keys absent from the file keep their default values
	if err := json.Unmarshal(data, &s.cur); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Update applies fn, trims text fields and persists the result.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	fn(&next)
	next.trim()
	s.cur = next
	return s.saveLocked()
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(s.cur, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".data-*.json")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
