package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vmemo/hotkey"
	"vmemo/notify"
	"vmemo/overlay"
	"vmemo/recorder"
	"vmemo/settings"
)

const noticeTTL = 4 * time.Second

// TUI message types
type noticeMsg struct{ Text string }
type noticeExpireMsg struct{ ID int }
type overlayAttachMsg struct{ Live *recorder.Live }
type overlayDetachMsg struct{}
type resultMsg struct{ Result notify.Result }

type sessionControl interface {
	Start(ctx context.Context) error
	Stop()
	Active() bool
}

type notice struct {
	id   int
	text string
}

type keyMap struct {
	Record   key.Binding
	Stop     key.Binding
	Settings key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Stop, k.Settings, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Record: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "Start voice memo recording"),
	),
	Stop: key.NewBinding(
		key.WithKeys("s", " ", "enter"),
		key.WithHelp("s", "stop"),
	),
	Settings: key.NewBinding(
		key.WithKeys(","),
		key.WithHelp(",", "settings"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type tuiModel struct {
	ctx      context.Context
	ctrl     sessionControl
	settings *settings.Store

	width, height int
	vaultRoot     string
	deviceLine    string
	hotkeyLine    string

	notices  []notice
	noticeID int

	overlayGen uint64
	overlay    *overlayState
	dialog     *resultDialog
	panel      *settingsPanel
	// settingsOnly quits when the settings panel closes.
	settingsOnly bool
	recordOnInit bool

	help help.Model
}

type tuiOptions struct {
	VaultRoot    string
	Device       string
	Hotkey       hotkey.Mode
	HotkeyErr    error
	SettingsOnly bool
	RecordOnInit bool
}

func newTUIModel(ctx context.Context, ctrl sessionControl, store *settings.Store, o tuiOptions) tuiModel {
	device := "system default"
	if o.Device != "" {
		device = o.Device
	}
	hk := ""
	switch {
	case o.HotkeyErr != nil:
		hk = hotkey.Label + " unavailable: " + o.HotkeyErr.Error()
	case o.Hotkey != hotkey.ModeOff:
		hk = hotkey.Label + " to record from anywhere"
	}
	m := tuiModel{
		ctx:          ctx,
		ctrl:         ctrl,
		settings:     store,
		vaultRoot:    o.VaultRoot,
		deviceLine:   "mic: " + device,
		hotkeyLine:   hk,
		settingsOnly: o.SettingsOnly,
		recordOnInit: o.RecordOnInit,
		help:         help.New(),
	}
	if o.SettingsOnly {
		p := newSettingsPanel(store.Get())
		m.panel = &p
	}
	return m
}

func (m tuiModel) Init() tea.Cmd {
	if m.recordOnInit {
		return m.startCmd()
	}
	return nil
}

func (m tuiModel) startCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		// failures arrive as notices
		ctrl.Start(ctx)
		return nil
	}
}

// stopCmd runs Stop off the update loop: Stop detaches the overlay, which
// sends back into the program.
func (m tuiModel) stopCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Stop()
		return nil
	}
}

func (m tuiModel) addNotice(text string) (tuiModel, tea.Cmd) {
	m.noticeID++
	id := m.noticeID
	m.notices = append(m.notices, notice{id: id, text: text})
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpireMsg{ID: id} })
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case noticeMsg:
		return m.addNotice(msg.Text)

	case noticeExpireMsg:
		for i, n := range m.notices {
			if n.id == msg.ID {
				m.notices = append(m.notices[:i:i], m.notices[i+1:]...)
				break
			}
		}
		return m, nil

	case overlayAttachMsg, overlayDetachMsg, overlayTimerMsg, overlayFrameMsg:
		return m.updateOverlay(msg)

	case resultMsg:
		d := newResultDialog(msg.Result)
		m.dialog = &d
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.dialog != nil {
			// a live recording owns its stop keys over an earlier result
			if m.overlay != nil && key.Matches(msg, keys.Stop) {
				return m, m.stopCmd()
			}
			return m.updateDialog(msg)
		}
		if m.panel != nil {
			return m.updatePanel(msg)
		}
		return m.updateKeys(msg)
	}

	if m.panel != nil {
		return m.updatePanel(msg)
	}
	return m, nil
}

func (m tuiModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case m.overlay != nil && key.Matches(msg, keys.Stop):
		return m, m.stopCmd()
	case key.Matches(msg, keys.Record):
		return m, m.startCmd()
	case key.Matches(msg, keys.Settings):
		p := newSettingsPanel(m.settings.Get())
		m.panel = &p
		return m, p.focusCmd()
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Render("vmemo")
	lines = append(lines, title+" "+styleDim.Render(version))

	if m.ctrl != nil && m.ctrl.Active() {
		lines = append(lines, styleRec.Render(overlay.Indicator(m.width)))
	} else {
		lines = append(lines, styleDim.Render("○ STANDBY"))
	}
	lines = append(lines, styleDim.Render("vault: "+m.vaultRoot))
	lines = append(lines, styleDim.Render(m.deviceLine))
	if m.hotkeyLine != "" {
		lines = append(lines, styleDim.Render(m.hotkeyLine))
	}
	lines = append(lines, "", m.help.View(keys))

	body := strings.Join(lines, "\n")

	switch {
	case m.dialog != nil:
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", m.dialog.View())
	case m.panel != nil:
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", m.panel.View())
	}
	if m.overlay != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", m.overlay.View(m.width))
	}
	if len(m.notices) > 0 {
		var ns []string
		for _, n := range m.notices {
			ns = append(ns, styleNotice.Render(n.text))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", strings.Join(ns, "\n"))
	}

	return lipgloss.NewStyle().Width(m.width).Height(m.height).Padding(0, 1).Render(body)
}

var (
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleRec    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleNotice = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("238")).Padding(0, 1)
)

// tuiHost forwards presenter calls into the running program. Its methods must
// not be called from inside Update.
type tuiHost struct {
	mu sync.Mutex
	p  *tea.Program
}

func (h *tuiHost) set(p *tea.Program) {
	h.mu.Lock()
	h.p = p
	h.mu.Unlock()
}

func (h *tuiHost) send(msg tea.Msg) {
	h.mu.Lock()
	p := h.p
	h.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (h *tuiHost) Notice(text string)         { h.send(noticeMsg{Text: text}) }
func (h *tuiHost) Attach(live *recorder.Live) { h.send(overlayAttachMsg{Live: live}) }
func (h *tuiHost) Detach()                    { h.send(overlayDetachMsg{}) }
func (h *tuiHost) ShowResult(r notify.Result) { h.send(resultMsg{Result: r}) }
