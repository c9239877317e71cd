package recorder

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vmemo/audio"
	"vmemo/encoder"
	"vmemo/vault"
	"vmemo/wakelock"
)

type fakeOverlay struct {
	mu       sync.Mutex
	attached int
	detached int
	live     *Live
}

func (o *fakeOverlay) Attach(l *Live) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attached++
	o.live = l
}

func (o *fakeOverlay) Detach() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.detached++
}

type fakePersister struct {
	mu    sync.Mutex
	blobs []Blob
	err   error
}

func (p *fakePersister) Save(b Blob) (*vault.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blobs = append(p.blobs, b)
	if p.err != nil {
		return nil, p.err
	}
	return &vault.File{Path: "VoiceMemos/memo.webm", Size: int64(len(b.Data))}, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	files []*vault.File
}

func (n *fakeNotifier) Notify(_ string, f *vault.File) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.files = append(n.files, f)
}

type fakeNoticer struct {
	mu      sync.Mutex
	notices []string
}

func (n *fakeNoticer) Notice(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, msg)
}

func (n *fakeNoticer) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

type fakeLock struct {
	mu       sync.Mutex
	released int
}

func (l *fakeLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
	return nil
}

type fakeLocker struct {
	lock  *fakeLock
	err   error
	enter chan struct{}
	gate  chan struct{}
}

func (f *fakeLocker) Acquire(context.Context, string) (wakelock.Lock, error) {
	if f.enter != nil {
		close(f.enter)
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.lock, nil
}

type harness struct {
	ctl       *Controller
	audio     *audio.FakeContext
	overlay   *fakeOverlay
	persister *fakePersister
	notifier  *fakeNotifier
	noticer   *fakeNoticer
	pcm       []byte
}

// testPCM is three capture callbacks worth of distinct bytes.
func testPCM() []byte {
	pcm := make([]byte, 3*2048)
	for i := range pcm {
		pcm[i] = byte(i / 2048 * 10)
		if i%2 == 1 {
			pcm[i] = byte(i % 251)
		}
	}
	return pcm
}

func newHarness(t *testing.T, mod func(*Config)) *harness {
	t.Helper()
	h := &harness{
		overlay:   &fakeOverlay{},
		persister: &fakePersister{},
		notifier:  &fakeNotifier{},
		noticer:   &fakeNoticer{},
		pcm:       testPCM(),
	}
	h.audio = audio.NewFakeContext(h.pcm, false)
	cfg := Config{
		Audio:     h.audio,
		Encoder:   encoder.NewFake,
		Overlay:   h.overlay,
		Persister: h.persister,
		Notifier:  h.notifier,
		Noticer:   h.noticer,
	}
	if mod != nil {
		mod(&cfg)
	}
	h.ctl = New(cfg)
	return h
}

func TestStartStopPersistsChunksInOrder(t *testing.T) {
	tail := []byte("tail")
	h := newHarness(t, func(c *Config) {
		c.Encoder = func(w io.WriteCloser) (encoder.Encoder, error) {
			e, err := encoder.NewFake(w)
			e.(*encoder.FakeEncoder).Tail = tail
			return e, err
		}
	})

	require.NoError(t, h.ctl.Start(context.Background()))
	assert.True(t, h.ctl.Active())
	assert.Equal(t, 1, h.overlay.attached)

	h.ctl.Stop()
	assert.False(t, h.ctl.Active())
	assert.Equal(t, 1, h.overlay.detached)
	h.ctl.Wait()

	require.Len(t, h.persister.blobs, 1)
	blob := h.persister.blobs[0]
	assert.Equal(t, append(append([]byte(nil), h.pcm...), tail...), blob.Data)
	assert.Equal(t, "audio/webm", blob.MediaType)

	require.Len(t, h.notifier.files, 1)
	assert.Equal(t, 1, h.ctl.Saved())

	caps := h.audio.Captures()
	require.Len(t, caps, 1)
	assert.True(t, caps[0].Closed(), "hardware stream not released")
	assert.Empty(t, h.noticer.all())
}

func TestSessionAssembleSkipsEmptyChunks(t *testing.T) {
	s := newSession("id", time.Now(), "audio/webm")
	s.append([]byte{1, 2})
	s.append(nil)
	s.append([]byte{})
	s.append([]byte{3})
	assert.Equal(t, 2, s.Chunks())
	assert.Equal(t, []byte{1, 2, 3}, s.Assemble().Data)
}

func TestStartWhileRecordingIsRejected(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.ctl.Start(context.Background()))

	err := h.ctl.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRecording)
	assert.Equal(t, []string{"Already recording"}, h.noticer.all())
	assert.Len(t, h.audio.Captures(), 1, "rejected start opened a stream")
	assert.Equal(t, 1, h.overlay.attached)

	h.ctl.Stop()
	h.ctl.Wait()

	require.Len(t, h.persister.blobs, 1)
	assert.Equal(t, h.pcm, h.persister.blobs[0].Data, "rejected start disturbed buffered data")
}

func TestStartDuringInFlightStartIsRejected(t *testing.T) {
	locker := &fakeLocker{lock: &fakeLock{}, enter: make(chan struct{}), gate: make(chan struct{})}
	h := newHarness(t, func(c *Config) { c.Locker = locker })

	done := make(chan error, 1)
	go func() { done <- h.ctl.Start(context.Background()) }()
	<-locker.enter

	assert.ErrorIs(t, h.ctl.Start(context.Background()), ErrAlreadyRecording)

	close(locker.gate)
	require.NoError(t, <-done)
	assert.True(t, h.ctl.Active())

	h.ctl.Stop()
	h.ctl.Wait()
	assert.Len(t, h.persister.blobs, 1)
}

func TestStopWithoutSessionDoesNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Stop()
	h.ctl.Wait()

	assert.Empty(t, h.persister.blobs)
	assert.Empty(t, h.notifier.files)
	assert.Zero(t, h.overlay.detached)
	assert.Empty(t, h.noticer.all())
}

func TestStopTwicePersistsOnce(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.ctl.Start(context.Background()))
	h.ctl.Stop()
	h.ctl.Stop()
	h.ctl.Wait()

	assert.Len(t, h.persister.blobs, 1)
	assert.Equal(t, 1, h.overlay.detached)
}

func TestPermissionDenied(t *testing.T) {
	h := newHarness(t, nil)
	h.audio.CaptureErr = audio.ErrFakeDenied

	err := h.ctl.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, []string{"Microphone permission denied or unavailable"}, h.noticer.all())
	assert.False(t, h.ctl.Active())
	assert.Zero(t, h.overlay.attached)

	// the slot is free again
	h.audio.CaptureErr = nil
	require.NoError(t, h.ctl.Start(context.Background()))
	h.ctl.Stop()
	h.ctl.Wait()
	assert.Len(t, h.persister.blobs, 1)
}

func TestDeviceStartFailureReleasesEverything(t *testing.T) {
	lock := &fakeLock{}
	h := newHarness(t, func(c *Config) { c.Locker = &fakeLocker{lock: lock} })
	h.audio.StartErr = errors.New("device busy")

	err := h.ctl.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	caps := h.audio.Captures()
	require.Len(t, caps, 1)
	assert.True(t, caps[0].Closed())
	assert.Equal(t, 1, lock.released)
	assert.False(t, h.ctl.Active())
}

func TestWakeLockFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.Locker = &fakeLocker{err: wakelock.ErrUnsupported}
	})
	require.NoError(t, h.ctl.Start(context.Background()))
	h.ctl.Stop()
	h.ctl.Wait()
	assert.Len(t, h.persister.blobs, 1)
	assert.Empty(t, h.noticer.all())
}

func TestWakeLockReleasedAfterStop(t *testing.T) {
	lock := &fakeLock{}
	h := newHarness(t, func(c *Config) { c.Locker = &fakeLocker{lock: lock} })
	require.NoError(t, h.ctl.Start(context.Background()))
	assert.Zero(t, lock.released)

	h.ctl.Stop()
	h.ctl.Wait()
	assert.Equal(t, 1, lock.released)
}

func TestStorageFailureIsNoticed(t *testing.T) {
	h := newHarness(t, nil)
	h.persister.err = vault.ErrExists

	require.NoError(t, h.ctl.Start(context.Background()))
	h.ctl.Stop()
	h.ctl.Wait()

	notices := h.noticer.all()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Voice memo could not be saved")
	assert.Empty(t, h.notifier.files)
	assert.Zero(t, h.ctl.Saved())
	assert.True(t, h.audio.Captures()[0].Closed())
}

func TestLiveTracksSlot(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.ctl.Start(context.Background()))

	live := h.overlay.live
	require.NotNil(t, live)
	assert.True(t, live.Active())
	assert.NotNil(t, live.Analyser)
	assert.GreaterOrEqual(t, h.ctl.Elapsed(), time.Duration(0))

	live.Stop()
	h.ctl.Wait()
	assert.False(t, live.Active())
	assert.Zero(t, h.ctl.Elapsed())

	// a new session does not revive the old view
	require.NoError(t, h.ctl.Start(context.Background()))
	assert.False(t, live.Active())
	assert.True(t, h.overlay.live.Active())
	h.ctl.Stop()
	h.ctl.Wait()
}

func TestToggle(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.ctl.Toggle(context.Background()))
	assert.True(t, h.ctl.Active())
	require.NoError(t, h.ctl.Toggle(context.Background()))
	assert.False(t, h.ctl.Active())
	h.ctl.Wait()
	assert.Len(t, h.persister.blobs, 1)
}

type fakeCue struct {
	mu     sync.Mutex
	events []string
}

func (c *fakeCue) add(e string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *fakeCue) Start() { c.add("start") }
func (c *fakeCue) Stop()  { c.add("stop") }
func (c *fakeCue) Error() { c.add("error") }

func (c *fakeCue) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func TestCuesFollowTransitions(t *testing.T) {
	cue := &fakeCue{}
	h := newHarness(t, func(c *Config) { c.Cue = cue })

	h.audio.CaptureErr = audio.ErrFakeDenied
	assert.Error(t, h.ctl.Start(context.Background()))
	h.audio.CaptureErr = nil

	require.NoError(t, h.ctl.Start(context.Background()))
	// rejected second start plays nothing
	assert.ErrorIs(t, h.ctl.Start(context.Background()), ErrAlreadyRecording)
	h.ctl.Stop()
	h.ctl.Stop()
	h.ctl.Wait()

	h.persister.err = vault.ErrExists
	require.NoError(t, h.ctl.Start(context.Background()))
	h.ctl.Stop()
	h.ctl.Wait()

	assert.Equal(t, []string{"error", "start", "stop", "start", "stop", "error"}, cue.all())
}
