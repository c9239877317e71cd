package overlay

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vmemo/audio"
	"vmemo/encoder"
	"vmemo/recorder"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{999 * time.Millisecond, "00:00"},
		{time.Second, "00:01"},
		{65 * time.Second, "01:05"},
		{75*time.Minute + 3*time.Second, "75:03"},
		{-time.Second, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.d), "d=%v", tt.d)
	}
}

func TestIndicator(t *testing.T) {
	assert.Equal(t, "● Recording", Indicator(80))
	assert.Equal(t, "● Recording", Indicator(0))
	assert.Equal(t, "●", Indicator(40))
}

func TestRenderWaveformSilenceIsFlat(t *testing.T) {
	silence := bytes.Repeat([]byte{128}, 128)
	lines := RenderWaveform(silence, 10, 2)
	require.Len(t, lines, 2)

	for _, line := range lines {
		assert.Equal(t, 10, utf8.RuneCountInString(line))
	}
	runes := []rune(lines[0] + lines[1])
	var lit int
	for _, r := range runes {
		if r != 0x2800 {
			lit++
		}
	}
	assert.Equal(t, 10, lit, "flat line should light exactly one row of cells")
}

func TestRenderWaveformPeaks(t *testing.T) {
	loud := bytes.Repeat([]byte{255}, 4)
	lines := RenderWaveform(loud, 2, 1)
	require.Len(t, lines, 1)
	// top row of both dot columns
	assert.Equal(t, string([]rune{0x2809, 0x2809}), lines[0])

	quiet := bytes.Repeat([]byte{0}, 4)
	lines = RenderWaveform(quiet, 2, 1)
	assert.Equal(t, string([]rune{0x28C0, 0x28C0}), lines[0])
}

func TestRenderWaveformConnectsSwings(t *testing.T) {
	lines := RenderWaveform([]byte{255, 0}, 1, 1)
	// the second column climbs from the top to the bottom
	assert.Equal(t, string(rune(0x2800|0x01|0x08|0x10|0x20|0x80)), lines[0])
}

func TestRenderWaveformEmpty(t *testing.T) {
	assert.Nil(t, RenderWaveform(nil, 0, 1))
	lines := RenderWaveform(nil, 3, 1)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, utf8.RuneCountInString(lines[0]))
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestConsoleFollowsSession(t *testing.T) {
	var out syncBuffer
	console := NewConsole(&out, 80)
	console.frame = 5 * time.Millisecond

	pcm := make([]byte, 48000*2)
	ctl := recorder.New(recorder.Config{
		Audio:   audio.NewFakeContext(pcm, true),
		Encoder: encoder.NewFake,
		Overlay: console,
	})

	require.NoError(t, ctl.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "● Recording 00:00")
	}, time.Second, 5*time.Millisecond)

	ctl.Stop()
	ctl.Wait()

	final := out.String()
	assert.True(t, strings.HasSuffix(final, "\r\033[K"), "line not cleared on detach")

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, final, out.String(), "redraw continued after detach")
}

func TestConsoleDetachIsIdempotent(t *testing.T) {
	var out syncBuffer
	console := NewConsole(&out, 40)
	console.Detach()
	console.Detach()
	assert.Empty(t, out.String())
}

func TestConsoleIgnoresEndedSession(t *testing.T) {
	var out syncBuffer
	console := NewConsole(&out, 80)
	console.frame = 5 * time.Millisecond

	console.Detach()
	console.Attach(&recorder.Live{Started: time.Now()})
	time.Sleep(30 * time.Millisecond)
	assert.NotContains(t, out.String(), "Recording")
}
