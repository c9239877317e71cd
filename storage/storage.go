// Package storage turns an assembled recording into a file inside the vault.
package storage

import (
	"fmt"
	"path"
	"strings"
	"text/template"
	"time"

	"vmemo/log"
	"vmemo/recorder"
	"vmemo/settings"
	"vmemo/vault"
)

const (
	DefaultDirTemplate = "VoiceMemos/{{.Year}}/{{.Month}} - {{.MonthName}}"
	Extension          = ".webm"
)

// Fields are the values a directory or name template can reference.
type Fields struct {
	Year      string
	Month     string
	MonthName string
	Day       string
	Hour      string
	Minute    string
	Second    string
}

func FieldsAt(t time.Time) Fields {
	return Fields{
		Year:      fmt.Sprintf("%04d", t.Year()),
		Month:     fmt.Sprintf("%02d", int(t.Month())),
		MonthName: t.Month().String(),
		Day:       fmt.Sprintf("%02d", t.Day()),
		Hour:      fmt.Sprintf("%02d", t.Hour()),
		Minute:    fmt.Sprintf("%02d", t.Minute()),
		Second:    fmt.Sprintf("%02d", t.Second()),
	}
}

// Expand renders tmpl with f. An empty or broken template renders def instead.
func Expand(tmpl, def string, f Fields) string {
	tmpl = strings.TrimSpace(tmpl)
	if tmpl == "" {
		tmpl = def
	}
	out, err := render(tmpl, f)
	if err != nil {
		log.Warnf("invalid path template %q, using default: %v", tmpl, err)
		out, _ = render(def, f)
	}
	return out
}

func render(tmpl string, f Fields) (string, error) {
	t, err := template.New("path").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, f); err != nil {
		return "", err
	}
	return b.String(), nil
}

type SettingsSource interface {
	Get() settings.Settings
}

// Saver writes each recording exactly once, at a path derived from the save time.
type Saver struct {
	vault    *vault.Vault
	settings SettingsSource
	now      func() time.Time
}

func NewSaver(v *vault.Vault, s SettingsSource) *Saver {
	return &Saver{vault: v, settings: s, now: time.Now}
}

// Path resolves the vault-relative directory and file path for time t.
func (s *Saver) Path(t time.Time) (dir, file string) {
	st := s.settings.Get()
	f := FieldsAt(t)
	dir = Expand(st.Directory, DefaultDirTemplate, f)
	name := Expand(st.Name, settings.DefaultNameTemplate, f)
	return dir, path.Join(dir, name+Extension)
}

func (s *Saver) Save(blob recorder.Blob) (*vault.File, error) {
	_, file := s.Path(s.now())
	// the name template may add folders of its own
	if err := s.vault.CreateFolder(path.Dir(file)); err != nil {
		return nil, fmt.Errorf("create memo folder: %w", err)
	}
	f, err := s.vault.CreateBinary(file, blob.Data)
	if err != nil {
		return nil, fmt.Errorf("write memo: %w", err)
	}
	return f, nil
}
