//go:build darwin

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// malgoOutput keeps one playback device and swaps the buffer it reads from.
type malgoOutput struct {
	once   sync.Once
	ctx    *malgo.AllocatedContext
	mu     sync.Mutex
	device *malgo.Device

	buf atomic.Pointer[[]byte]
	pos atomic.Uint32
}

func newOutput() output { return &malgoOutput{} }

func (m *malgoOutput) init() {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}
	m.ctx = ctx
	if err := m.initDevice(); err != nil {
		ctx.Uninit()
		m.ctx = nil
	}
}

func (m *malgoOutput) initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	device, err := malgo.InitDevice(m.ctx.Context, config, malgo.DeviceCallbacks{Data: m.data})
	if err != nil {
		return err
	}
	m.device = device
	return nil
}

func (m *malgoOutput) data(out, _ []byte, frameCount uint32) {
	clear(out)
	buf := m.buf.Load()
	if buf == nil {
		return
	}
	pos := m.pos.Load()
	remaining := uint32(len(*buf)) - pos
	if remaining == 0 {
		m.buf.Store(nil)
		return
	}
	n := min(frameCount*2, remaining)
	copy(out[:n], (*buf)[pos:pos+n])
	m.pos.Store(pos + n)
}

func (m *malgoOutput) play(samples []int16) {
	m.once.Do(m.init)
	if m.ctx == nil || len(samples) == 0 {
		return
	}
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device == nil {
		return
	}
	m.device.Stop()
	m.pos.Store(0)
	m.buf.Store(&pcm)
	if err := m.device.Start(); err != nil {
		// the device can go stale across sleep and wake
		m.device.Uninit()
		m.device = nil
		if err := m.initDevice(); err != nil {
			m.buf.Store(nil)
			return
		}
		if err := m.device.Start(); err != nil {
			m.buf.Store(nil)
		}
	}
}
