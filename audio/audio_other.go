//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: %w", err)
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	infos, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(infos))
	for _, d := range infos {
		devices = append(devices, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return devices, nil
}

func deviceID(d *DeviceInfo) (*malgo.DeviceID, error) {
	raw, err := hex.DecodeString(d.ID)
	if err != nil {
		return nil, fmt.Errorf("device %q: bad id: %w", d.Name, err)
	}
	var id malgo.DeviceID
	copy(id[:], raw)
	return &id, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	dc := malgo.DefaultDeviceConfig(malgo.Capture)
	dc.Capture.Format = malgo.FormatS16
	dc.Capture.Channels = config.Channels
	dc.SampleRate = config.SampleRate
	if device != nil {
		id, err := deviceID(device)
		if err != nil {
			return nil, err
		}
		dc.Capture.DeviceID = id.Pointer()
	}

	c := &malgoCapture{label: deviceLabel(device)}
	dev, err := malgo.InitDevice(m.ctx.Context, dc, malgo.DeviceCallbacks{Data: c.onData})
	if err != nil {
		return nil, fmt.Errorf("malgo init capture: %w", err)
	}
	c.device = dev
	return c, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	callbackSlot

	device *malgo.Device
	label  string
	once   sync.Once
}

// onData copies the input because malgo reuses the buffer after returning.
func (c *malgoCapture) onData(_, input []byte, frames uint32) {
	if !c.armed() {
		return
	}
	pcm := make([]byte, len(input))
	copy(pcm, input)
	c.deliver(pcm, frames)
}

func (c *malgoCapture) Start() error {
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("malgo start: %w", err)
	}
	return nil
}

func (c *malgoCapture) Stop() { c.device.Stop() }

func (c *malgoCapture) Close() {
	c.once.Do(c.device.Uninit)
}

func (c *malgoCapture) DeviceName() string { return c.label }
