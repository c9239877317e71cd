package notify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vmemo/settings"
	"vmemo/vault"
)

type staticSettings settings.Settings

func (s staticSettings) Get() settings.Settings { return settings.Settings(s) }

type spy struct {
	events  []string
	copyErr error
	openErr error
	results []Result
}

func (r *spy) Copy(text string) error {
	r.events = append(r.events, "copy:"+text)
	return r.copyErr
}

func (r *spy) Open(path string) error {
	r.events = append(r.events, "open:"+path)
	return r.openErr
}

func (r *spy) Notice(msg string) {
	r.events = append(r.events, "notice:"+msg)
}

func (r *spy) ShowResult(res Result) {
	r.events = append(r.events, "dialog:"+res.File.Path)
	r.results = append(r.results, res)
}

var memo = &vault.File{Path: "VoiceMemos/a.webm", Abs: "/vault/VoiceMemos/a.webm"}

func newNotifier(r *spy, st settings.Settings) *Notifier {
	return New(Options{
		Settings:  staticSettings(st),
		Dialog:    r,
		Clipboard: r,
		Opener:    r,
		Noticer:   r,
	})
}

func TestToggleSubsets(t *testing.T) {
	const (
		dialog = "dialog:VoiceMemos/a.webm"
		copied = "copy:![[VoiceMemos/a.webm]]"
		notice = "notice:Link copied"
		opened = "open:/vault/VoiceMemos/a.webm"
	)
	for mask := 0; mask < 8; mask++ {
		st := settings.Settings{
			ShowDialog: mask&1 != 0,
			AutoCopy:   mask&2 != 0,
			AutoOpen:   mask&4 != 0,
		}
		var want []string
		if st.ShowDialog {
			want = append(want, dialog)
		}
		if st.AutoCopy {
			want = append(want, copied, notice)
		}
		if st.AutoOpen {
			want = append(want, opened)
		}

		r := &spy{}
		newNotifier(r, st).Notify("s", memo)
		assert.Equal(t, want, r.events, fmt.Sprintf("settings %+v", st))
	}
}

func TestCopyFailureDoesNotBlockOpen(t *testing.T) {
	r := &spy{copyErr: errors.New("no clipboard")}
	newNotifier(r, settings.Settings{AutoCopy: true, AutoOpen: true}).Notify("s", memo)
	assert.Equal(t, []string{"copy:![[VoiceMemos/a.webm]]", "open:/vault/VoiceMemos/a.webm"}, r.events)
}

func TestDialogFailsOpenQuietly(t *testing.T) {
	r := &spy{openErr: errors.New("no opener")}
	newNotifier(r, settings.Settings{ShowDialog: true}).Notify("s", memo)
	require.Len(t, r.results, 1)

	r.results[0].View()
	assert.Equal(t, []string{"dialog:VoiceMemos/a.webm", "open:/vault/VoiceMemos/a.webm"}, r.events)
}

func TestDialogActions(t *testing.T) {
	r := &spy{}
	newNotifier(r, settings.Settings{ShowDialog: true}).Notify("s", memo)
	require.Len(t, r.results, 1)
	res := r.results[0]
	assert.Equal(t, "![[VoiceMemos/a.webm]]", res.Link)

	r.events = nil
	res.Copy()
	assert.Equal(t, []string{"copy:![[VoiceMemos/a.webm]]", "notice:Link copied"}, r.events)

	r.events = nil
	res.View()
	assert.Equal(t, []string{"open:/vault/VoiceMemos/a.webm"}, r.events)
}

func TestCustomLink(t *testing.T) {
	v, err := vault.Open(t.TempDir(), false)
	require.NoError(t, err)
	r := &spy{}
	n := New(Options{
		Settings:  staticSettings(settings.Settings{AutoCopy: true}),
		Link:      v.Link,
		Clipboard: r,
		Opener:    r,
	})
	n.Notify("s", memo)
	assert.Equal(t, []string{"copy:![a](VoiceMemos/a.webm)"}, r.events)
}
