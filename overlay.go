package main

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vmemo/overlay"
	"vmemo/recorder"
)

const (
	waveWidth   = 32
	waveHeight  = 2
	compactWave = 16
)

// Overlay task ticks carry the generation they were scheduled for. A tick whose
// generation is stale belongs to a detached overlay and is dropped.
type overlayTimerMsg struct{ gen uint64 }
type overlayFrameMsg struct{ gen uint64 }

type overlayState struct {
	live    *recorder.Live
	gen     uint64
	elapsed string
	samples []byte
}

var (
	overlayBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)
	waveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	buttonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1)
)

func timerTick(gen uint64) tea.Cmd {
	return tea.Tick(overlay.TimerInterval, func(time.Time) tea.Msg { return overlayTimerMsg{gen: gen} })
}

func frameTick(gen uint64) tea.Cmd {
	return tea.Tick(overlay.FrameInterval, func(time.Time) tea.Msg { return overlayFrameMsg{gen: gen} })
}

func (m tuiModel) updateOverlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case overlayAttachMsg:
		// a Detach may have overtaken this Attach
		if msg.Live == nil || !msg.Live.Active() {
			return m, nil
		}
		m.overlayGen++
		bins := 128
		if msg.Live.Analyser != nil {
			bins = msg.Live.Analyser.FrequencyBinCount()
		}
		samples := make([]byte, bins)
		for i := range samples {
			samples[i] = 128
		}
		m.overlay = &overlayState{
			live:    msg.Live,
			gen:     m.overlayGen,
			elapsed: overlay.FormatElapsed(0),
			samples: samples,
		}
		return m, tea.Batch(timerTick(m.overlayGen), frameTick(m.overlayGen))

	case overlayDetachMsg:
		// cancels both tasks: their next tick no longer matches
		m.overlay = nil
		return m, nil

	case overlayTimerMsg:
		if m.overlay == nil || msg.gen != m.overlay.gen {
			return m, nil
		}
		ov := *m.overlay
		ov.elapsed = overlay.FormatElapsed(ov.live.Elapsed())
		m.overlay = &ov
		if !ov.live.Active() {
			return m, nil
		}
		return m, timerTick(ov.gen)

	case overlayFrameMsg:
		if m.overlay == nil || msg.gen != m.overlay.gen {
			return m, nil
		}
		if !m.overlay.live.Active() {
			return m, nil
		}
		if a := m.overlay.live.Analyser; a != nil {
			a.ByteTimeDomainData(m.overlay.samples)
		}
		return m, frameTick(m.overlay.gen)
	}
	return m, nil
}

func (o *overlayState) View(width int) string {
	ww := waveWidth
	if width > 0 && width < overlay.CompactWidth {
		ww = compactWave
	}
	head := styleRec.Render(overlay.Indicator(width)) + "  " + o.elapsed
	wave := waveStyle.Render(strings.Join(overlay.RenderWaveform(o.samples, ww, waveHeight), "\n"))
	stop := buttonStyle.Render("Stop") + styleDim.Render("  s / space / enter")
	return overlayBox.Render(lipgloss.JoinVertical(lipgloss.Left, head, wave, stop))
}
