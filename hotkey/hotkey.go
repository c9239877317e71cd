package hotkey

// Label names the global recording shortcut.
const Label = "Ctrl+Shift+R"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// signal delivers one event without blocking; a pending event absorbs the new one.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
