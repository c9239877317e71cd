// Package recorder owns the single recording session: it opens the microphone,
// streams encoded chunks into memory and, on stop, runs the save pipeline.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"vmemo/audio"
	"vmemo/encoder"
	"vmemo/log"
	"vmemo/vault"
	"vmemo/wakelock"
)

const lockTimeout = 2 * time.Second

// Overlay presents a live session. Detach must be idempotent.
type Overlay interface {
	Attach(live *Live)
	Detach()
}

type Persister interface {
	Save(blob Blob) (*vault.File, error)
}

type PostNotifier interface {
	Notify(sessionID string, f *vault.File)
}

// Cue is told about session transitions, for audible feedback.
type Cue interface {
	Start()
	Stop()
	Error()
}

type Noticer interface {
	Notice(msg string)
}

// Live is the view of a running session handed to the overlay.
type Live struct {
	SessionID string
	Started   time.Time
	Analyser  *audio.Analyser
	Stop      func()

	gen    uint64
	active func(gen uint64) bool
}

// Active reports whether this session still holds the slot.
func (l *Live) Active() bool {
	return l.active != nil && l.active(l.gen)
}

func (l *Live) Elapsed() time.Duration {
	return time.Since(l.Started)
}

type Config struct {
	Audio audio.Context
	// Device is a capture device name; empty picks the system default.
	Device    string
	Encoder   encoder.Factory
	Locker    wakelock.Locker
	Overlay   Overlay
	Persister Persister
	Notifier  PostNotifier
	Noticer   Noticer
	Cue       Cue
	FFTSize   int
}

type active struct {
	session *Session
	media   *mediaRecorder
	capture audio.CaptureDevice
	lock    wakelock.Lock
	live    *Live
}

type Controller struct {
	cfg Config

	mu       sync.Mutex
	starting bool
	current  *active
	gen      uint64
	saved    int

	pipelines sync.WaitGroup
}

func New(cfg Config) *Controller {
	if cfg.Encoder == nil {
		cfg.Encoder = encoder.NewWebm
	}
	if cfg.Locker == nil {
		cfg.Locker = wakelock.Nop{}
	}
	if cfg.Overlay == nil {
		cfg.Overlay = nopOverlay{}
	}
	if cfg.Noticer == nil {
		cfg.Noticer = nopNoticer{}
	}
	if cfg.Cue == nil {
		cfg.Cue = nopCue{}
	}
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = audio.DefaultFFTSize
	}
	return &Controller{cfg: cfg}
}

// SetDevice changes the capture device used by the next Start.
func (c *Controller) SetDevice(name string) {
	c.mu.Lock()
	c.cfg.Device = name
	c.mu.Unlock()
}

// Start opens the microphone and begins a session. The slot is reserved before
// anything blocks, so a second Start while one is in flight is rejected too.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.current != nil || c.starting {
		c.mu.Unlock()
		c.cfg.Noticer.Notice(noticeAlreadyRecording)
		return ErrAlreadyRecording
	}
	c.starting = true
	deviceName := c.cfg.Device
	c.mu.Unlock()

	a, err := c.open(ctx, deviceName)
	if err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		c.cfg.Cue.Error()
		return err
	}

	c.mu.Lock()
	c.starting = false
	c.gen++
	a.live.gen = c.gen
	c.current = a
	c.mu.Unlock()

	log.SessionStart(a.session.ID, a.capture.DeviceName(), a.session.MediaType())
	c.cfg.Overlay.Attach(a.live)
	c.cfg.Cue.Start()
	return nil
}

func (c *Controller) open(ctx context.Context, deviceName string) (*active, error) {
	dev, err := audio.FindDevice(c.cfg.Audio, deviceName)
	if err != nil {
		log.Warnf("%v, using system default", err)
		dev = nil
	}

	capture, err := c.cfg.Audio.NewCapture(dev, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		log.Errorf("open capture: %v", err)
		c.cfg.Noticer.Notice(noticePermission)
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	session := newSession(uuid.NewString(), time.Now(), encoder.MediaType)
	analyser := audio.NewAnalyser(c.cfg.FFTSize)
	media, err := newMediaRecorder(capture, session, c.cfg.Encoder, analyser)
	if err != nil {
		capture.Close()
		log.Errorf("start session: %v", err)
		c.cfg.Noticer.Notice(fmt.Sprintf("%s: %v", noticeStartFailed, err))
		return nil, err
	}

	lock := c.acquireLock(ctx, session.ID)

	if err := media.start(); err != nil {
		media.stop()
		c.releaseLock(session.ID, lock)
		capture.Close()
		log.Errorf("start capture: %v", err)
		c.cfg.Noticer.Notice(noticePermission)
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	a := &active{
		session: session,
		media:   media,
		capture: capture,
		lock:    lock,
	}
	a.live = &Live{
		SessionID: session.ID,
		Started:   session.Started,
		Analyser:  analyser,
		Stop:      c.Stop,
		active:    c.isCurrent,
	}
	return a, nil
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.gen == gen
}

func (c *Controller) acquireLock(ctx context.Context, id string) wakelock.Lock {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	lock, err := c.cfg.Locker.Acquire(ctx, "Recording a voice memo")
	if err != nil {
		log.ActionFailed(id, "wake_lock_acquire", err)
		return nil
	}
	return lock
}

func (c *Controller) releaseLock(id string, lock wakelock.Lock) {
	if lock == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := lock.Release(ctx); err != nil {
		log.ActionFailed(id, "wake_lock_release", err)
	}
}

// Stop ends the active session. Without one it does nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	a := c.current
	if a == nil {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.pipelines.Add(1)
	c.mu.Unlock()

	c.cfg.Overlay.Detach()
	c.cfg.Cue.Stop()
	go c.finish(a)
}

// Toggle starts a session, or stops the running one.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.Active() {
		c.Stop()
		return nil
	}
	return c.Start(ctx)
}

func (c *Controller) finish(a *active) {
	defer c.pipelines.Done()
	defer a.capture.Close()

	id := a.session.ID
	duration := time.Since(a.session.Started)

	// finalize: the last chunks land before the stop event
	if err := a.media.stop(); err != nil {
		log.ActionFailed(id, "finalize", err)
	}
	<-a.media.stopped()

	c.releaseLock(id, a.lock)

	log.RecordingStop(id, duration, a.session.Chunks(), a.session.Size())
	blob := a.session.Assemble()

	if c.cfg.Persister == nil {
		return
	}
	f, err := c.cfg.Persister.Save(blob)
	if err != nil {
		log.ActionFailed(id, "persist", err)
		c.cfg.Noticer.Notice(fmt.Sprintf("%s: %v", noticeSaveFailed, err))
		c.cfg.Cue.Error()
		return
	}
	log.MemoSaved(id, f.Path, f.Size)
	c.mu.Lock()
	c.saved++
	c.mu.Unlock()

	if c.cfg.Notifier != nil {
		c.cfg.Notifier.Notify(id, f)
	}
}

// Wait blocks until every stop pipeline has finished.
func (c *Controller) Wait() {
	c.pipelines.Wait()
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Elapsed is the running session's duration, or zero when idle.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return 0
	}
	return time.Since(c.current.session.Started)
}

// Saved counts memos written since the controller was created.
func (c *Controller) Saved() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved
}

type nopOverlay struct{}

func (nopOverlay) Attach(*Live) {}
func (nopOverlay) Detach()      {}

type nopNoticer struct{}

func (nopNoticer) Notice(string) {}

type nopCue struct{}

func (nopCue) Start() {}
func (nopCue) Stop()  {}
func (nopCue) Error() {}
