package overlay

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"vmemo/recorder"
)

const consoleFrameInterval = 100 * time.Millisecond

// Console draws the overlay as a single carriage-return refreshed line, for
// runs without a full-screen terminal.
type Console struct {
	out   io.Writer
	width int
	frame time.Duration

	mu   sync.Mutex
	gen  uint64
	stop chan struct{}
	done chan struct{}
}

func NewConsole(out io.Writer, width int) *Console {
	return &Console{out: out, width: width, frame: consoleFrameInterval}
}

func (c *Console) Attach(live *recorder.Live) {
	c.Detach()
	if live == nil || !live.Active() {
		return
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	stop, done := c.stop, c.done
	c.mu.Unlock()

	go c.run(gen, live, stop, done)
}

// Detach cancels the redraw and clears the line. It is a no-op when nothing is attached.
func (c *Console) Detach() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.gen++
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	fmt.Fprint(c.out, "\r\033[K")
}

func (c *Console) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *Console) run(gen uint64, live *recorder.Live, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTicker(TimerInterval)
	defer timer.Stop()
	frame := time.NewTicker(c.frame)
	defer frame.Stop()

	elapsed := FormatElapsed(live.Elapsed())
	samples := make([]byte, 128)
	if live.Analyser != nil {
		samples = make([]byte, live.Analyser.FrequencyBinCount())
	}
	waveWidth := 16
	if c.width > 0 && c.width < CompactWidth {
		waveWidth = 8
	}

	c.draw(elapsed, samples, waveWidth)
	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			elapsed = FormatElapsed(live.Elapsed())
		case <-frame.C:
			if !live.Active() || !c.current(gen) {
				return
			}
			if live.Analyser != nil {
				live.Analyser.ByteTimeDomainData(samples)
			}
			c.draw(elapsed, samples, waveWidth)
		}
	}
}

func (c *Console) draw(elapsed string, samples []byte, waveWidth int) {
	wave := strings.Join(RenderWaveform(samples, waveWidth, 1), "")
	fmt.Fprintf(c.out, "\r\033[K%s %s %s  [Enter to stop]", Indicator(c.width), elapsed, wave)
}
