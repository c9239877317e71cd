package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vmemo/settings"
)

type panelField int

const (
	fieldDirectory panelField = iota
	fieldName
	fieldAutoOpen
	fieldAutoCopy
	fieldShowDialog
	fieldCount
)

var panelKeys = struct {
	Up, Down, Toggle, Close key.Binding
}{
	Up:     key.NewBinding(key.WithKeys("up", "shift+tab")),
	Down:   key.NewBinding(key.WithKeys("down", "tab")),
	Toggle: key.NewBinding(key.WithKeys(" ", "enter")),
	Close:  key.NewBinding(key.WithKeys("esc")),
}

// settingsPanel edits the persisted settings. Every change is saved as it is made.
type settingsPanel struct {
	focus  panelField
	dir    textinput.Model
	name   textinput.Model
	values settings.Settings
}

func newSettingsPanel(s settings.Settings) settingsPanel {
	dir := textinput.New()
	dir.Placeholder = "VoiceMemos/YYYY/MM - Month"
	dir.Prompt = ""
	dir.CharLimit = 256
	dir.SetValue(s.Directory)
	dir.Focus()

	name := textinput.New()
	name.Placeholder = settings.DefaultNameTemplate
	name.Prompt = ""
	name.CharLimit = 256
	name.SetValue(s.Name)

	return settingsPanel{dir: dir, name: name, values: s}
}

func (p settingsPanel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (p *settingsPanel) setFocus(f panelField) {
	p.focus = f
	p.dir.Blur()
	p.name.Blur()
	switch f {
	case fieldDirectory:
		p.dir.Focus()
	case fieldName:
		p.name.Focus()
	}
}

var (
	panelBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	panelLabel   = lipgloss.NewStyle().Width(22)
	panelFocused = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (p settingsPanel) View() string {
	rows := []struct {
		label string
		value string
	}{
		{"Folder", p.dir.View()},
		{"File name", p.name.View()},
		{"Open after saving", checkbox(p.values.AutoOpen)},
		{"Copy link", checkbox(p.values.AutoCopy)},
		{"Show result dialog", checkbox(p.values.ShowDialog)},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Voice memo settings"), "")
	for i, r := range rows {
		label := panelLabel.Render(r.label)
		if panelField(i) == p.focus {
			label = panelFocused.Render("› ") + panelLabel.Render(r.label)
		} else {
			label = "  " + label
		}
		lines = append(lines, label+r.value)
	}
	lines = append(lines, "", styleDim.Render("fields: {{.Year}} {{.Month}} {{.MonthName}} {{.Day}} {{.Hour}} {{.Minute}} {{.Second}}"))
	lines = append(lines, styleDim.Render("↑/↓ move · space toggle · esc close"))
	return panelBox.Render(strings.Join(lines, "\n"))
}

func (m tuiModel) updatePanel(msg tea.Msg) (tea.Model, tea.Cmd) {
	p := *m.panel

	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, panelKeys.Close):
			m.panel = nil
			if m.settingsOnly {
				return m, tea.Quit
			}
			return m, nil
		case key.Matches(km, panelKeys.Up):
			p.setFocus((p.focus + fieldCount - 1) % fieldCount)
			m.panel = &p
			return m, nil
		case key.Matches(km, panelKeys.Down):
			p.setFocus((p.focus + 1) % fieldCount)
			m.panel = &p
			return m, nil
		case p.focus >= fieldAutoOpen && key.Matches(km, panelKeys.Toggle):
			switch p.focus {
			case fieldAutoOpen:
				p.values.AutoOpen = !p.values.AutoOpen
			case fieldAutoCopy:
				p.values.AutoCopy = !p.values.AutoCopy
			case fieldShowDialog:
				p.values.ShowDialog = !p.values.ShowDialog
			}
			m.panel = &p
			return m.savePanel()
		}
	}

	var cmd tea.Cmd
	switch p.focus {
	case fieldDirectory:
		p.dir, cmd = p.dir.Update(msg)
	case fieldName:
		p.name, cmd = p.name.Update(msg)
	default:
		return m, nil
	}
	changed := p.dir.Value() != p.values.Directory || p.name.Value() != p.values.Name
	p.values.Directory = p.dir.Value()
	p.values.Name = p.name.Value()
	m.panel = &p
	if !changed {
		return m, cmd
	}
	next, saveCmd := m.savePanel()
	return next, tea.Batch(cmd, saveCmd)
}

// savePanel persists the panel's values. Text fields are stored trimmed but the
// inputs keep what the user typed.
func (m tuiModel) savePanel() (tea.Model, tea.Cmd) {
	v := m.panel.values
	err := m.settings.Update(func(s *settings.Settings) {
		s.Directory = v.Directory
		s.Name = v.Name
		s.AutoOpen = v.AutoOpen
		s.AutoCopy = v.AutoCopy
		s.ShowDialog = v.ShowDialog
	})
	if err != nil {
		return m.addNotice("Settings could not be saved: " + err.Error())
	}
	return m, nil
}
