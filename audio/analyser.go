package audio

import (
	"encoding/binary"
	"sync"
)

// DefaultFFTSize gives 128 time-domain bins, enough for a small waveform.
const DefaultFFTSize = 256

// Analyser keeps a window of the most recent captured samples so a presenter can
// poll amplitude frames without touching the capture path.
type Analyser struct {
	mu   sync.Mutex
	ring []int16
	pos  int
}

func NewAnalyser(fftSize int) *Analyser {
	if fftSize <= 0 {
		fftSize = DefaultFFTSize
	}
	return &Analyser{ring: make([]int16, fftSize)}
}

func (a *Analyser) FrequencyBinCount() int {
	return len(a.ring) / 2
}

// Write feeds s16le PCM into the window. Safe to call from the capture callback.
func (a *Analyser) Write(pcm []byte) {
	a.mu.Lock()
	for i := 0; i+1 < len(pcm); i += 2 {
		a.ring[a.pos] = int16(binary.LittleEndian.Uint16(pcm[i:]))
		a.pos = (a.pos + 1) % len(a.ring)
	}
	a.mu.Unlock()
}

// ByteTimeDomainData fills dst with the latest len(dst) samples, oldest first,
// scaled to 0..255 with 128 as the zero line.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.ring)
	start := a.pos - len(dst)
	for i := range dst {
		s := a.ring[((start+i)%n+n)%n]
		dst[i] = byte((int(s) >> 8) + 128)
	}
}
