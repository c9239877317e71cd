// Package clipboard writes memo links to the system clipboard.
package clipboard

import (
	"errors"

	cb "github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("no clipboard utility found (install xclip, xsel or wl-clipboard)")

type Writer interface {
	Copy(text string) error
}

// System is the desktop clipboard.
type System struct{}

func (System) Copy(text string) error {
	return Copy(text)
}

func Copy(text string) error {
	if cb.Unsupported {
		return ErrUnavailable
	}
	return cb.WriteAll(text)
}

func Read() (string, error) {
	if cb.Unsupported {
		return "", ErrUnavailable
	}
	return cb.ReadAll()
}

// Available reports whether a clipboard backend was found at startup.
func Available() bool {
	return !cb.Unsupported
}
