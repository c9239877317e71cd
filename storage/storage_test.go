package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vmemo/recorder"
	"vmemo/settings"
	"vmemo/vault"
)

type staticSettings settings.Settings

func (s staticSettings) Get() settings.Settings { return settings.Settings(s) }

var savedAt = time.Date(2024, time.March, 5, 9, 7, 2, 0, time.Local)

func newSaver(t *testing.T, st settings.Settings) *Saver {
	t.Helper()
	v, err := vault.Open(t.TempDir(), true)
	require.NoError(t, err)
	s := NewSaver(v, staticSettings(st))
	s.now = func() time.Time { return savedAt }
	return s
}

func TestDefaultPathPattern(t *testing.T) {
	s := newSaver(t, settings.Defaults())
	dir, file := s.Path(savedAt)
	assert.Equal(t, "VoiceMemos/2024/03 - March", dir)
	assert.Equal(t, "VoiceMemos/2024/03 - March/2024-03-05 09.07.02.webm", file)
}

func TestEmptyNameUsesDefault(t *testing.T) {
	s := newSaver(t, settings.Settings{Name: "   "})
	_, file := s.Path(savedAt)
	assert.Equal(t, "VoiceMemos/2024/03 - March/2024-03-05 09.07.02.webm", file)
}

func TestCustomTemplates(t *testing.T) {
	tests := []struct {
		dir, name string
		want      string
	}{
		{"Audio", "memo", "Audio/memo.webm"},
		{"Audio/{{.MonthName}}", "{{.Hour}}{{.Minute}}", "Audio/March/0907.webm"},
		{"{{.Year}}", "{{.Day}}-{{.Second}}", "2024/05-02.webm"},
	}
	for _, tt := range tests {
		s := newSaver(t, settings.Settings{Directory: tt.dir, Name: tt.name})
		_, file := s.Path(savedAt)
		assert.Equal(t, tt.want, file, "dir=%q name=%q", tt.dir, tt.name)
	}
}

func TestInvalidTemplateFallsBack(t *testing.T) {
	s := newSaver(t, settings.Settings{Directory: "{{.Year", Name: "{{.Nope}}"})
	_, file := s.Path(savedAt)
	assert.Equal(t, "VoiceMemos/2024/03 - March/2024-03-05 09.07.02.webm", file)
}

func TestSaveWritesArtifact(t *testing.T) {
	s := newSaver(t, settings.Defaults())
	f, err := s.Save(recorder.Blob{Data: []byte("opus"), MediaType: "audio/webm;codecs=opus"})
	require.NoError(t, err)
	assert.Equal(t, "VoiceMemos/2024/03 - March/2024-03-05 09.07.02.webm", f.Path)

	data, err := os.ReadFile(f.Abs)
	require.NoError(t, err)
	assert.Equal(t, "opus", string(data))
}

func TestSaveSameSecondCollides(t *testing.T) {
	s := newSaver(t, settings.Defaults())
	_, err := s.Save(recorder.Blob{Data: []byte("one")})
	require.NoError(t, err)

	_, err = s.Save(recorder.Blob{Data: []byte("two")})
	assert.ErrorIs(t, err, vault.ErrExists)
}

func TestSaveOutsideVault(t *testing.T) {
	s := newSaver(t, settings.Settings{Directory: "../out"})
	_, err := s.Save(recorder.Blob{Data: []byte("x")})
	assert.ErrorIs(t, err, vault.ErrOutsideVault)
}

func TestSaveNameTemplateWithFolders(t *testing.T) {
	s := newSaver(t, settings.Settings{Name: "{{.Day}}/{{.Hour}}{{.Minute}}"})
	f, err := s.Save(recorder.Blob{Data: []byte("opus")})
	require.NoError(t, err)
	assert.Equal(t, "VoiceMemos/2024/03 - March/05/0907.webm", f.Path)

	data, err := os.ReadFile(f.Abs)
	require.NoError(t, err)
	assert.Equal(t, "opus", string(data))
}
