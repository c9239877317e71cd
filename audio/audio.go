package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
)

const WAVHeaderSize = 44

// DataCallback receives little-endian signed 16-bit PCM.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// callbackSlot holds the current DataCallback for a backend's capture
// thread. Setting and clearing never block the thread.
type callbackSlot struct {
	p atomic.Pointer[DataCallback]
}

func (s *callbackSlot) SetCallback(cb DataCallback) { s.p.Store(&cb) }
func (s *callbackSlot) ClearCallback()              { s.p.Store(nil) }

func (s *callbackSlot) deliver(data []byte, frames uint32) {
	if cb := s.p.Load(); cb != nil {
		(*cb)(data, frames)
	}
}

func (s *callbackSlot) armed() bool { return s.p.Load() != nil }

func deviceLabel(d *DeviceInfo) string {
	if d == nil {
		return "system default"
	}
	return d.Name
}

func int16LE(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return data
}

// FindDevice returns the capture device with the given name, or nil for the system default.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("capture device %q not found", name)
}

// LazyContext connects to the audio backend on first use and retries after a
// failed connection, so the host can start without a working sound server.
type LazyContext struct {
	open func() (Context, error)

	mu  sync.Mutex
	ctx Context
}

func NewLazyContext(open func() (Context, error)) *LazyContext {
	return &LazyContext{open: open}
}

func (l *LazyContext) get() (Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx != nil {
		return l.ctx, nil
	}
	ctx, err := l.open()
	if err != nil {
		return nil, err
	}
	l.ctx = ctx
	return ctx, nil
}

func (l *LazyContext) Devices() ([]DeviceInfo, error) {
	ctx, err := l.get()
	if err != nil {
		return nil, err
	}
	return ctx.Devices()
}

func (l *LazyContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	ctx, err := l.get()
	if err != nil {
		return nil, err
	}
	return ctx.NewCapture(device, config)
}

func (l *LazyContext) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx != nil {
		l.ctx.Close()
		l.ctx = nil
	}
}
