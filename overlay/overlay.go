// Package overlay renders the live recording indicator: a status dot, the
// elapsed timer and a waveform of the most recent audio.
package overlay

import (
	"fmt"
	"strings"
	"time"
)

const (
	TimerInterval = 500 * time.Millisecond
	FrameInterval = time.Second / 60

	// CompactWidth is the terminal width below which the label is dropped.
	CompactWidth = 60

	Dot   = "●"
	Label = "Recording"
)

// FormatElapsed renders whole seconds as MM:SS. Minutes do not wrap at 60.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Indicator is the status text for a terminal of the given width.
func Indicator(width int) string {
	if width > 0 && width < CompactWidth {
		return Dot
	}
	return Dot + " " + Label
}

// braille dot bits, indexed [column][row]
var brailleBits = [2][4]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// RenderWaveform plots time-domain samples (0..255, 128 = silence) as a
// connected line of braille cells, width cells across and height rows down.
func RenderWaveform(samples []byte, width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	dotsX, dotsY := width*2, height*4
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = make([]rune, width)
	}
	set := func(x, y int) {
		cells[y/4][x/2] |= brailleBits[x%2][y%4]
	}

	prev := -1
	for x := 0; x < dotsX; x++ {
		v := 128
		if len(samples) > 0 {
			v = int(samples[x*len(samples)/dotsX])
		}
		y := (255 - v) * (dotsY - 1) / 255
		lo, hi := y, y
		if prev >= 0 {
			lo, hi = min(prev, y), max(prev, y)
		}
		for yy := lo; yy <= hi; yy++ {
			set(x, yy)
		}
		prev = y
	}

	lines := make([]string, height)
	var b strings.Builder
	for i, row := range cells {
		b.Reset()
		for _, bits := range row {
			b.WriteRune(0x2800 + bits)
		}
		lines[i] = b.String()
	}
	return lines
}
