package encoder

import (
	"encoding/binary"
	"io"
	"sync"
)

// FakeEncoder writes each block's raw s16le bytes to the sink in one Write, so
// tests can reason about chunk boundaries without libopus.
type FakeEncoder struct {
	w           io.WriteCloser
	mu          sync.Mutex
	totalFrames uint64
	closed      bool

	// Tail, when set, is written as a final chunk during Close.
	Tail []byte
}

func NewFake(w io.WriteCloser) (Encoder, error) {
	return &FakeEncoder{w: w}, nil
}

func (e *FakeEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	buf := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	e.totalFrames += uint64(len(block) / Channels)
	_, err := e.w.Write(buf)
	return err
}

func (e *FakeEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if len(e.Tail) > 0 {
		if _, err := e.w.Write(e.Tail); err != nil {
			e.w.Close()
			return err
		}
	}
	return e.w.Close()
}

func (e *FakeEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}

func (e *FakeEncoder) MediaType() string { return "audio/webm" }
