//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// evdev key codes from linux/input-event-codes.h
const (
	evKey     = 1
	keyLCtrl  = 29
	keyRCtrl  = 97
	keyLShift = 42
	keyRShift = 54
	keyR      = 19
)

const inputEventSize = 24

// chord tracks Ctrl+Shift+R across one device's event stream.
type chord struct {
	ctrl, shift, held bool
}

// feed applies one key event. value is 0 for release, 1 for press and 2 for
// autorepeat; repeats never change state.
func (c *chord) feed(code uint16, value int32) (down, up bool) {
	if value == 2 {
		return false, false
	}
	pressed := value == 1
	switch code {
	case keyLCtrl, keyRCtrl:
		c.ctrl = pressed
	case keyLShift, keyRShift:
		c.shift = pressed
	case keyR:
		if pressed && !c.held && c.ctrl && c.shift {
			c.held = true
			return true, false
		}
		if !pressed && c.held {
			c.held = false
			return false, true
		}
	}
	return false, false
}

func decodeEvent(b []byte) (typ, code uint16, value int32) {
	return binary.LittleEndian.Uint16(b[16:]),
		binary.LittleEndian.Uint16(b[18:]),
		int32(binary.LittleEndian.Uint32(b[20:]))
}

type linuxHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func New() Hotkey {
	return &linuxHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

func (h *linuxHotkey) Register() error {
	paths, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("scanning input devices: %w", err)
	}
	if len(paths) == 0 {
		return errNoKeyboard
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.read(f)
	}
	if len(h.files) == 0 {
		return fmt.Errorf("%d keyboard(s) found but none readable (run: sudo usermod -aG input $USER, then re-login)", len(paths))
	}
	return nil
}

var errNoKeyboard = errors.New("no keyboard with Ctrl, Shift and R found (is the user in the 'input' group?)")

func (h *linuxHotkey) read(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var c chord
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		select {
		case <-h.stop:
			return
		default:
		}
		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			typ, code, value := decodeEvent(buf[i : i+inputEventSize])
			if typ != evKey {
				continue
			}
			down, up := c.feed(code, value)
			if down {
				signal(h.keydown)
			}
			if up {
				signal(h.keyup)
			}
		}
	}
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		close(h.stop)
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *linuxHotkey) Keyup() <-chan struct{}   { return h.keyup }

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		caps, err := os.ReadFile(filepath.Join("/sys/class/input", e.Name(), "device", "capabilities", "key"))
		if err != nil {
			continue
		}
		if hasChordKeys(string(caps)) {
			paths = append(paths, filepath.Join("/dev/input", e.Name()))
		}
	}
	return paths, nil
}

// hasChordKeys reports whether a sysfs key capability bitmap includes Ctrl,
// Shift and R. The bitmap is hex words, most significant first; the codes
// needed all sit in the lowest 64 bits.
func hasChordKeys(caps string) bool {
	words := strings.Fields(caps)
	if len(words) == 0 {
		return false
	}
	low, err := strconv.ParseUint(words[len(words)-1], 16, 64)
	if err != nil {
		return false
	}
	for _, code := range []uint{keyLCtrl, keyLShift, keyR} {
		if low&(1<<code) == 0 {
			return false
		}
	}
	return true
}

func Diagnose() (string, error) {
	paths, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(paths) == 0 {
		return "", errNoKeyboard
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			return fmt.Sprintf("%d keyboard(s) found, opened %s", len(paths), path), nil
		}
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(paths))
}
