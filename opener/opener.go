// Package opener hands a file to the desktop's default application.
package opener

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

type Opener interface {
	Open(path string) error
}

// System opens files with explorer, open or xdg-open.
type System struct{}

func (System) Open(path string) error {
	cmd := Command(runtime.GOOS, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// reap the child
	go cmd.Wait()
	return nil
}

// Command builds the opener invocation for goos.
func Command(goos, path string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.Command("explorer", filepath.FromSlash(path))
	case "darwin":
		return exec.Command("open", path)
	default:
		return exec.Command("xdg-open", path)
	}
}
