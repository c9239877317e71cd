package encoder

import "io"

const (
	SampleRate    = 48000
	Channels      = 1
	BitsPerSample = 16
	FrameMs       = 20
	FrameSamples  = SampleRate / 1000 * FrameMs * Channels
)

// MediaType is the negotiated type of every container this package produces.
const MediaType = "audio/webm;codecs=opus"

// Encoder turns PCM blocks into container bytes written to the sink it was
// created with. Close flushes the tail and closes the sink.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	TotalFrames() uint64
	MediaType() string
}

// Factory builds an Encoder writing into w.
type Factory func(w io.WriteCloser) (Encoder, error)
