package encoder

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/at-wat/ebml-go/webm"
	"github.com/jj11hh/opus"
)

const (
	opusBitrate   = 32000
	opusPreSkip   = 312
	maxOpusPacket = 1275
	trackUID      = 0x766d656d6f // "vmemo"
)

// WebmEncoder encodes 20ms Opus packets and muxes them into a WebM stream as
// they are produced, the way a browser media recorder emits its chunks.
type WebmEncoder struct {
	enc     *opus.Encoder
	track   webm.BlockWriteCloser
	packet  []byte
	pending []int16

	totalFrames uint64
	timestampMs int64
	mu          sync.Mutex
}

func NewWebm(w io.WriteCloser) (Encoder, error) {
	enc, err := opus.NewEncoder(SampleRate, Channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	if err := enc.SetBitrate(opusBitrate); err != nil {
		return nil, fmt.Errorf("set opus bitrate: %w", err)
	}

	tracks, err := webm.NewSimpleBlockWriter(w, []webm.TrackEntry{{
		Name:            "Audio",
		TrackNumber:     1,
		TrackUID:        trackUID,
		CodecID:         "A_OPUS",
		CodecPrivate:    opusHead(),
		TrackType:       2,
		DefaultDuration: FrameMs * 1000000,
		Audio: &webm.Audio{
			SamplingFrequency: SampleRate,
			Channels:          Channels,
		},
	}})
	if err != nil {
		return nil, fmt.Errorf("create webm writer: %w", err)
	}

	return &WebmEncoder{
		enc:    enc,
		track:  tracks[0],
		packet: make([]byte, maxOpusPacket),
	}, nil
}

// opusHead is the identification header Matroska carries as CodecPrivate (RFC 7845).
func opusHead() []byte {
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1 // version
	head[9] = Channels
	binary.LittleEndian.PutUint16(head[10:], opusPreSkip)
	binary.LittleEndian.PutUint32(head[12:], SampleRate)
	// output gain and mapping family stay zero
	return head
}

func (e *WebmEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.totalFrames += uint64(len(block) / Channels)
	e.pending = append(e.pending, block...)

	for len(e.pending) >= FrameSamples {
		if err := e.writeFrame(e.pending[:FrameSamples]); err != nil {
			return err
		}
		e.pending = e.pending[FrameSamples:]
	}
	return nil
}

func (e *WebmEncoder) writeFrame(frame []int16) error {
	n, err := e.enc.Encode(frame, e.packet)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}
	if _, err := e.track.Write(true, e.timestampMs, e.packet[:n]); err != nil {
		return fmt.Errorf("webm write block: %w", err)
	}
	e.timestampMs += FrameMs
	return nil
}

// Close pads the final partial frame with silence and closes the container.
func (e *WebmEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pending) > 0 {
		frame := make([]int16, FrameSamples)
		copy(frame, e.pending)
		e.pending = nil
		if err := e.writeFrame(frame); err != nil {
			e.track.Close()
			return err
		}
	}
	return e.track.Close()
}

func (e *WebmEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}

func (e *WebmEncoder) MediaType() string {
	return MediaType
}
