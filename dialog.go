package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vmemo/notify"
)

type dialogButton int

const (
	buttonClose dialogButton = iota
	buttonCopy
	buttonView
)

var dialogLabels = [...]string{"Close", "Copy", "View"}

var dialogKeys = struct {
	Left, Right, Press, Close, Copy, View key.Binding
}{
	Left:  key.NewBinding(key.WithKeys("left", "h", "shift+tab")),
	Right: key.NewBinding(key.WithKeys("right", "l", "tab")),
	Press: key.NewBinding(key.WithKeys("enter", " ")),
	Close: key.NewBinding(key.WithKeys("esc", "q")),
	Copy:  key.NewBinding(key.WithKeys("c")),
	View:  key.NewBinding(key.WithKeys("v")),
}

// resultDialog is the modal shown after a memo is saved.
type resultDialog struct {
	result notify.Result
	focus  dialogButton
}

func newResultDialog(r notify.Result) resultDialog {
	return resultDialog{result: r, focus: buttonClose}
}

var (
	dialogBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	dialogButtonStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("250"))
	dialogFocusedStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("63"))
)

func (d resultDialog) View() string {
	title := lipgloss.NewStyle().Bold(true).Render("Voice memo saved")
	path := styleDim.Render(d.result.File.Path)

	var buttons []string
	for i, label := range dialogLabels {
		style := dialogButtonStyle
		if dialogButton(i) == d.focus {
			style = dialogFocusedStyle
		}
		buttons = append(buttons, style.Render(label))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
	return dialogBox.Render(lipgloss.JoinVertical(lipgloss.Left, title, path, "", row))
}

func (m tuiModel) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := *m.dialog
	switch {
	case key.Matches(msg, dialogKeys.Left):
		d.focus = (d.focus + dialogButton(len(dialogLabels)) - 1) % dialogButton(len(dialogLabels))
	case key.Matches(msg, dialogKeys.Right):
		d.focus = (d.focus + 1) % dialogButton(len(dialogLabels))
	case key.Matches(msg, dialogKeys.Close):
		return m.pressDialog(buttonClose)
	case key.Matches(msg, dialogKeys.Copy):
		return m.pressDialog(buttonCopy)
	case key.Matches(msg, dialogKeys.View):
		return m.pressDialog(buttonView)
	case key.Matches(msg, dialogKeys.Press):
		return m.pressDialog(d.focus)
	}
	m.dialog = &d
	return m, nil
}

// pressDialog dismisses the dialog and runs the button's action off the update loop.
func (m tuiModel) pressDialog(b dialogButton) (tea.Model, tea.Cmd) {
	r := m.dialog.result
	m.dialog = nil
	var action func()
	switch b {
	case buttonCopy:
		action = r.Copy
	case buttonView:
		action = r.View
	}
	if action == nil {
		return m, nil
	}
	return m, func() tea.Msg {
		action()
		return nil
	}
}
